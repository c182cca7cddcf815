package main

import "github.com/splashsched/scheduler/cmd/splash-scheduler/cmd"

func main() {
	cmd.Execute()
}
