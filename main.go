package main

import "github.com/linanwx/urlsummarizer/cmd"

func main() {
	cmd.Execute()
}
