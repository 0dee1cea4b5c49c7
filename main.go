package main

import "github.com/km-arc/go-composer/framework/console"

func main() {
	console.Execute()
}
