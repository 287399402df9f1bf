package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/config"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/logger"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/service"
)

func main() {
	var (
		operatorID  int
		role        string
		schoolCode  string
		permissions string
		expiry      time.Duration
	)
	flag.IntVar(&operatorID, "operator", 0, "Operator ID (required)")
	flag.StringVar(&role, "role", "teacher", "Operator role")
	flag.StringVar(&schoolCode, "school", "", "School code; defaults to SCHOOL_CODE")
	flag.StringVar(&permissions, "perms", "all", "Comma-separated permissions, or all")
	flag.DurationVar(&expiry, "expiry", 0, "Token lifetime; defaults to JWT_EXPIRY_HOURS")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if operatorID <= 0 {
		fmt.Fprintln(os.Stderr, "-operator is required")
		flag.Usage()
		os.Exit(2)
	}
	if schoolCode == "" {
		schoolCode = cfg.SchoolCode
	}
	if expiry > 0 {
		cfg.JWTExpiry = expiry
	}

	perms, err := parsePermissions(permissions)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid permissions")
	}

	// Revocation needs Redis; issuing does not.
	auth := service.NewAuthService(cfg, nil)
	op := model.Operator{ID: operatorID, Role: role, SchoolCode: schoolCode}
	token, err := auth.IssueToken(op, perms)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(token)
		return
	}

	fmt.Println("=== Operator Token ===")
	fmt.Printf("Operator:    %d (%s)\n", op.ID, op.Role)
	fmt.Printf("School:      %s\n", displayOr(op.SchoolCode, "(any)"))
	fmt.Printf("Permissions: %s\n", joinPermissions(perms))
	fmt.Printf("Expires:     %s\n", time.Now().Add(cfg.JWTExpiry).Format(time.RFC3339))
	fmt.Println()
	fmt.Println(token)
}

func parsePermissions(raw string) ([]model.Permission, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "all") {
		return model.AllPermissions, nil
	}
	known := make(map[model.Permission]bool, len(model.AllPermissions))
	for _, p := range model.AllPermissions {
		known[p] = true
	}

	var perms []model.Permission
	for _, part := range strings.Split(raw, ",") {
		p := model.Permission(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		if !known[p] {
			return nil, fmt.Errorf("unknown permission %q", p)
		}
		perms = append(perms, p)
	}
	if len(perms) == 0 {
		return nil, fmt.Errorf("no permissions given")
	}
	return perms, nil
}

func joinPermissions(perms []model.Permission) string {
	parts := make([]string, len(perms))
	for i, p := range perms {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
