// Command heartrisk учебный сервис оценки риска сердечно-сосудистого заболевания.
//
// @title Heart Risk API
// @version 1.0
// @description Учебный сервис оценки риска сердечно-сосудистого заболевания по клиническим показателям.
// @host localhost:8080
// @BasePath /
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
