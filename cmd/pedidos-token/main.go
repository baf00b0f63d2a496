// Package main выпускает токен доступа для пользователя сервиса заказов.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mmeshcher/pedidos-system/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	userID := flag.Int64("user", 0, "user id")
	role := flag.String("role", middleware.RoleAdmin, "role: ADMIN or CLIENTE")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(2)
	}

	r := strings.ToUpper(strings.TrimSpace(*role))
	if r != middleware.RoleAdmin && r != middleware.RoleCustomer {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}
	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "-user must be positive")
		os.Exit(2)
	}

	token, err := middleware.NewToken(secret, *userID, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
