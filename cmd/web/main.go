package main

import "ikizamini_backend/internal/app"

func main() {
	app.Run()
}
