package main

func main() {
	if err := Execute(); err != nil {
		exitError("%v", err)
	}
}
