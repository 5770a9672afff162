/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/voicetel/pcapgap/cmd"

func main() {
	cmd.Execute()
}
