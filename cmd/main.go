package main

import "github.com/adanyl0v/go-todo-tenants/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()
	app.MustMigratePostgres()

	app.MustConnectObjectStore()
	defer app.DisconnectObjectStore()

	app.MustStartMediaSweeper()
	defer app.StopMediaSweeper()

	app.MustListenAndServeHTTP()
}
