package main

import (
	"log"

	"kediacrm/internal/app"
)

// @title                       Kedia CRM API
// @version                     1.0
// @description                 Task tracking for admins and staff.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
