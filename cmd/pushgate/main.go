package main

import "github.com/vietddude/pushgate/internal/cli"

func main() {
	cli.Execute()
}
