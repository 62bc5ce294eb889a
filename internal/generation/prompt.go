package generation

import "strings"

// systemInstruction defines the output contract sent ahead of every description.
const systemInstruction = `You are an AI no-code application builder. The user describes a simple web application (a calculator, to-do list, timer, weather widget or dashboard). Respond ONLY with the complete, working HTML, CSS and JavaScript for a single-file application.

Output contract:
1. Emit only a complete standalone HTML document. No markdown fences and no explanation text.
2. Start with <!DOCTYPE html> and include the full <html>, <head> and <body> structure.
3. Put all CSS in <style> tags inside <head>.
4. Put all JavaScript in <script> tags before </body>.
5. Tailwind CSS from its CDN may be used for styling.
6. The application must be interactive and fully functional.
7. The layout must work on mobile and desktop.
8. Handle errors and give the user feedback.
9. The document must run as is inside an iframe.
10. Do not call external APIs or use dependencies the browser does not provide.`

const userRequestLabel = "User Request:"

// BuildPrompt composes the instruction and an already validated description.
func BuildPrompt(description string) string {
	var b strings.Builder
	b.Grow(len(systemInstruction) + len(description) + 32)
	b.WriteString(systemInstruction)
	b.WriteString("\n\n")
	b.WriteString(userRequestLabel)
	b.WriteString(" ")
	b.WriteString(description)
	return b.String()
}
