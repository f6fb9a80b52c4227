// Command verify-email marks a registered user's email as verified, which
// is what lets an allow-listed admin through the admin routes.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/adanyl0v/go-todo-tenants/internal/app"
)

func main() {
	email := flag.String("email", "", "email of the registered user")
	flag.Parse()
	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: verify-email -email <address>")
		os.Exit(2)
	}

	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()

	app.MustVerifyEmail(*email)
}
