// tenantctl is the operator CLI for the tenant registry: list, add,
// update and remove tenants. It is a thin input-collection layer over
// the provisioning engine; all rendering and prompting happens here.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradedash/tenant-server/internal/config"
	"github.com/tradedash/tenant-server/internal/models"
	"github.com/tradedash/tenant-server/internal/storage"
	"github.com/tradedash/tenant-server/internal/tenant"
	"github.com/tradedash/tenant-server/pkg/crypto"
)

const usage = `Usage: tenantctl [-config FILE] COMMAND

Commands:
  list                      List all tenants
  add                       Add a new tenant
  update SLUG               Update a tenant
  remove SLUG               Remove a tenant and its schema
  hash-password             Print a bcrypt hash for the admin password

Run 'tenantctl COMMAND -h' for command flags.
`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	var configFile string
	flag.StringVar(&configFile, "config", "config/tenant-server.yml", "Configuration file path")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	command, args := args[0], args[1:]

	// hash-password needs no database
	if command == "hash-password" {
		runHashPassword(args)
		return
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		fatal("load config: %v", err)
	}

	store, err := storage.NewPostgresStore(cfg.Database.DSN)
	if err != nil {
		fatal("connect to database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.EnsureRegistry(ctx); err != nil {
		fatal("ensure tenant registry: %v", err)
	}

	service := tenant.NewService(store, nil)

	switch command {
	case "list":
		runList(ctx, service)
	case "add":
		runAdd(ctx, service, args)
	case "update":
		runUpdate(ctx, service, args)
	case "remove":
		runRemove(ctx, service, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		flag.Usage()
		os.Exit(2)
	}
}

func runList(ctx context.Context, service *tenant.Service) {
	tenants, err := service.List(ctx)
	if err != nil {
		fatal("list tenants: %v", err)
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found.")
		return
	}

	for _, t := range tenants {
		fmt.Printf("%s\n", t.Slug)
		fmt.Printf("  Business: %s\n", t.BusinessName)
		fmt.Printf("  Email:    %s\n", t.Email)
		fmt.Printf("  Trade:    %s\n", t.TradeType)
		fmt.Printf("  Tier:     %s (%s)\n", t.SubscriptionTier, t.SubscriptionStatus)
		fmt.Printf("  Schema:   %s\n", t.SchemaName)
		fmt.Printf("  Created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
	fmt.Printf("Total: %d tenant(s)\n", len(tenants))
}

func runAdd(ctx context.Context, service *tenant.Service, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	business := fs.String("business", "", "Business name (required)")
	email := fs.String("email", "", "Email address (required)")
	phone := fs.String("phone", "", "Phone number")
	trade := fs.String("trade", "general", "Trade type: "+joinTrades())
	tier := fs.String("tier", "trial", "Subscription tier: "+joinTiers())
	fs.Parse(args)

	if *business == "" || *email == "" {
		fmt.Fprintln(os.Stderr, "-business and -email are required")
		fs.Usage()
		os.Exit(2)
	}

	created, err := service.Create(ctx, tenant.CreateInput{
		BusinessName: *business,
		Email:        *email,
		Phone:        *phone,
		TradeType:    models.TradeType(*trade),
		Tier:         models.SubscriptionTier(*tier),
	})
	if err != nil {
		fatal("create tenant: %v", err)
	}

	fmt.Println("Tenant created successfully!")
	fmt.Printf("  ID:       %s\n", created.ID)
	fmt.Printf("  Slug:     %s\n", created.Slug)
	fmt.Printf("  Schema:   %s\n", created.SchemaName)
	fmt.Printf("  Business: %s\n", created.BusinessName)
	fmt.Printf("  Email:    %s\n", created.Email)
	fmt.Printf("  Trade:    %s\n", created.TradeType)
	fmt.Printf("  Tier:     %s\n", created.SubscriptionTier)
	if created.TrialEndsAt != nil {
		fmt.Printf("  Trial ends: %s\n", created.TrialEndsAt.Format("2006-01-02"))
	}
}

func runUpdate(ctx context.Context, service *tenant.Service, args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	business := fs.String("business", "", "New business name")
	email := fs.String("email", "", "New email")
	trade := fs.String("trade", "", "New trade type: "+joinTrades())
	tier := fs.String("tier", "", "New subscription tier: "+joinTiers())
	status := fs.String("status", "", "New subscription status")
	color := fs.String("color", "", "New primary color")

	slug, rest := splitSlugArg(args, fs)
	fs.Parse(rest)

	var changes models.TenantChanges
	if *business != "" {
		changes.BusinessName = business
	}
	if *email != "" {
		changes.Email = email
	}
	if *trade != "" {
		v := models.TradeType(*trade)
		changes.TradeType = &v
	}
	if *tier != "" {
		v := models.SubscriptionTier(*tier)
		changes.SubscriptionTier = &v
	}
	if *status != "" {
		v := models.SubscriptionStatus(*status)
		changes.SubscriptionStatus = &v
	}
	if *color != "" {
		changes.PrimaryColor = color
	}

	updated, err := service.Update(ctx, slug, changes)
	if err != nil {
		fatal("update tenant: %v", err)
	}

	if !updated {
		fmt.Println("No fields to update.")
		return
	}
	fmt.Printf("Tenant %q updated successfully.\n", slug)
}

func runRemove(ctx context.Context, service *tenant.Service, args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	force := fs.Bool("force", false, "Skip confirmation")

	slug, rest := splitSlugArg(args, fs)
	fs.Parse(rest)

	t, err := service.Get(ctx, slug)
	if err != nil {
		fatal("remove tenant: %v", err)
	}

	if !*force {
		fmt.Println("Tenant to remove:")
		fmt.Printf("  Slug:     %s\n", t.Slug)
		fmt.Printf("  Business: %s\n", t.BusinessName)
		fmt.Printf("  Email:    %s\n", t.Email)
		fmt.Printf("  Schema:   %s\n", t.SchemaName)

		if !confirm("Are you sure you want to delete this tenant? (yes/no): ") {
			fmt.Println("Cancelled.")
			return
		}
	}

	// Confirmed above (or forced); the engine itself never prompts.
	if err := service.Remove(ctx, slug, true); err != nil {
		fatal("remove tenant: %v", err)
	}

	fmt.Printf("Tenant %q removed successfully.\n", slug)
}

func runHashPassword(args []string) {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	password := fs.String("password", "", "Password to hash (required)")
	fs.Parse(args)

	if *password == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(2)
	}

	hash, err := crypto.HashPassword(*password)
	if err != nil {
		fatal("hash password: %v", err)
	}
	fmt.Println(hash)
}

// splitSlugArg pulls the positional slug off the front of the argument
// list, leaving flags for the flag set.
func splitSlugArg(args []string, fs *flag.FlagSet) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		fmt.Fprintln(os.Stderr, "a tenant slug is required")
		fs.Usage()
		os.Exit(2)
	}
	return args[0], args[1:]
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(scanner.Text()), "yes")
}

func joinTrades() string {
	parts := make([]string, len(models.TradeTypes))
	for i, t := range models.TradeTypes {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func joinTiers() string {
	parts := make([]string, len(models.SubscriptionTiers))
	for i, t := range models.SubscriptionTiers {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
