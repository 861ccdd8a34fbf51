package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/planning-admin/internal/auth"
	orgDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/organization"
	userDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/planning-admin/internal/organization"
	organizationPostgres "github.com/frahmantamala/planning-admin/internal/organization/postgres"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/frahmantamala/planning-admin/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const seedOrganizationName = "City of Springfield"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with system roles, sample users and one organization for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if err := seed(cmd.Context(), db, cfg.Security.BCryptCost); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

type seedUser struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
	OrgRole   string
}

func seed(ctx context.Context, db *gorm.DB, bcryptCost int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if clearData {
		if err := db.WithContext(ctx).Exec(`TRUNCATE legislations, org_audit_logs, organization_members,
			org_roles, organizations, user_roles, roles, users RESTART IDENTITY CASCADE`).Error; err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
		fmt.Println("Cleared existing data")
	}

	systemRoles := []userDatamodel.Role{
		{Name: "admin", DisplayName: "Administrator", Description: "Full system access",
			Permissions: permission.Wildcard(), IsSystem: true, Level: 100},
		{Name: "city_official", DisplayName: "City Official", Description: "Manages every organization",
			Permissions: permission.LegacyList("org.manage", "members.manage", "legislation.approve", "mapping.edit"), IsSystem: true, Level: 80},
		{Name: "viewer", DisplayName: "Viewer", Description: "Reads planning data",
			Permissions: permission.LegacyList("legislation.read", "mapping.read"), IsSystem: true, Level: 10},
	}
	roleIDs := make(map[string]int64, len(systemRoles))
	for _, r := range systemRoles {
		role := r
		if err := db.WithContext(ctx).Where(userDatamodel.Role{Name: r.Name}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
		roleIDs[role.Name] = role.ID
		fmt.Println("Seeded system role:", role.Name)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	users := []seedUser{
		{Email: "admin@planning.local", FirstName: "Ada", LastName: "Admin", Role: "admin"},
		{Email: "official@planning.local", FirstName: "Owen", LastName: "Official", Role: "city_official"},
		{Email: "planner@planning.local", FirstName: "Pat", LastName: "Planner", OrgRole: "Planner"},
		{Email: "reviewer@planning.local", FirstName: "Robin", LastName: "Reviewer", Role: "viewer", OrgRole: "Reviewer"},
	}
	userIDs := make(map[string]int64, len(users))
	for _, su := range users {
		u := userDatamodel.User{
			Email:        su.Email,
			PasswordHash: string(hash),
			FirstName:    su.FirstName,
			LastName:     su.LastName,
			IsActive:     true,
		}
		if err := db.WithContext(ctx).Where(userDatamodel.User{Email: su.Email}).FirstOrCreate(&u).Error; err != nil {
			return fmt.Errorf("seed user %s: %w", su.Email, err)
		}
		userIDs[su.Email] = u.ID

		if su.Role != "" {
			grant := userDatamodel.UserRole{UserID: u.ID, RoleID: roleIDs[su.Role]}
			if err := db.WithContext(ctx).Where(grant).FirstOrCreate(&grant).Error; err != nil {
				return fmt.Errorf("grant %s to %s: %w", su.Role, su.Email, err)
			}
		}
		fmt.Println("Seeded user:", su.Email)
	}

	var existing orgDatamodel.Organization
	err = db.WithContext(ctx).Where("name = ?", seedOrganizationName).First(&existing).Error
	if err == nil {
		fmt.Println("organization already exists; skipping:", seedOrganizationName)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup organization: %w", err)
	}

	svc := organization.NewService(organizationPostgres.NewOrganizationRepository(db), nil, nil, logger.LoggerWrapper())
	owner := &auth.User{ID: userIDs["admin@planning.local"], Email: "admin@planning.local", IsActive: true}
	org, err := svc.Create(ctx, owner, organization.CreateOrganizationDTO{
		Name:    seedOrganizationName,
		City:    "Springfield",
		Country: "US",
	})
	if err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	fmt.Println("Seeded organization:", org.Name)

	for _, su := range users {
		if su.OrgRole == "" {
			continue
		}
		if _, err := svc.AddMember(ctx, org.ID, owner.ID, organization.AddMemberDTO{
			Email: su.Email,
			Role:  su.OrgRole,
		}); err != nil {
			return fmt.Errorf("add %s to %s: %w", su.Email, org.Name, err)
		}
		fmt.Printf("Added %s as %s\n", su.Email, su.OrgRole)
	}

	return nil
}
