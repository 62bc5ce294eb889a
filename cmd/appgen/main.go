// Appgen turns a plain-language description into a single-file HTML app.
//
// Usage:
//
//	# Generate from a description
//	appgen generate "a pomodoro timer with a dark theme" --out timer.html
//
//	# Generate from a PDF brief
//	appgen generate --brief spec.pdf --pages 1-3
package main

func main() {
	Execute()
}
