package main

import (
	cmdx "github.com/CharlesKZhang/Reservation-Bot/cmd"
	_ "github.com/CharlesKZhang/Reservation-Bot/pkg/logger/autoload"
)

func main() {
	cmdx.Execute()
}
