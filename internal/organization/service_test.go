package organization_test

import (
	"context"
	"sync"
	"testing"

	"github.com/frahmantamala/planning-admin/internal"
	"github.com/frahmantamala/planning-admin/internal/access"
	"github.com/frahmantamala/planning-admin/internal/audit"
	"github.com/frahmantamala/planning-admin/internal/auth"
	orgDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/organization"
	userDatamodel "github.com/frahmantamala/planning-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/planning-admin/internal/core/events"
	"github.com/frahmantamala/planning-admin/internal/organization"
	orgPostgres "github.com/frahmantamala/planning-admin/internal/organization/postgres"
	"github.com/frahmantamala/planning-admin/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestOrganization(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Organization Suite")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.OrganizationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := event.(*events.OrganizationEvent); ok {
		p.events = append(p.events, e)
	}
	return nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

func openDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	Expect(db.AutoMigrate(
		&userDatamodel.User{},
		&orgDatamodel.Organization{},
		&orgDatamodel.OrgRole{},
		&orgDatamodel.OrganizationMember{},
		&orgDatamodel.OrgAuditLog{},
	)).To(Succeed())
	return db
}

func createUser(db *gorm.DB, email, first, last string) *auth.User {
	row := userDatamodel.User{Email: email, PasswordHash: "x", FirstName: first, LastName: last, IsActive: true}
	Expect(db.Create(&row).Error).To(Succeed())
	return &auth.User{ID: row.ID, Email: row.Email, FirstName: first, LastName: last, IsActive: true}
}

func appErrorCode(err error) internal.ErrorCode {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	return appErr.Code
}

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		publisher *recordingPublisher
		service   *organization.Service
		mayor     *auth.User
		planner   *auth.User
		org       *organization.Organization
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db = openDB()
		publisher = &recordingPublisher{}
		service = organization.NewService(orgPostgres.NewOrganizationRepository(db), publisher, audit.NewSink(db, nil), nil)

		mayor = createUser(db, "mayor@springfield.gov", "Joe", "Quimby")
		planner = createUser(db, "planner@springfield.gov", "Lisa", "Simpson")

		org, err = service.Create(ctx, mayor, organization.CreateOrganizationDTO{Name: "Springfield"})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Create", func() {
		It("should seed the default roles", func() {
			roles, err := service.ListRoles(ctx, org.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(HaveLen(4))

			byName := map[string]organization.Role{}
			for _, r := range roles {
				Expect(r.IsSystem).To(BeTrue())
				byName[r.Name] = r
			}
			Expect(byName["Admin"].Permissions).To(Equal(permission.Full()))
			Expect(byName["Planner"].Permissions.Allows(permission.ToolLegislation, permission.ActionEdit)).To(BeTrue())
			Expect(byName["Planner"].Permissions.Allows(permission.ToolOrganizationManagement, permission.ActionEdit)).To(BeFalse())
			Expect(byName["Reviewer"].Permissions.Allows(permission.ToolMappingZoning, permission.ActionView)).To(BeTrue())
			Expect(byName["Reviewer"].Permissions.Allows(permission.ToolMappingZoning, permission.ActionEdit)).To(BeFalse())
			Expect(byName["City Official"].Permissions.Allows(permission.ToolOrganizationManagement, permission.ActionEdit)).To(BeTrue())
		})

		It("should make the creator an active org admin", func() {
			orgs, err := service.ListForUser(ctx, mayor.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(orgs).To(HaveLen(1))
			Expect(orgs[0].IsOrgAdmin).To(BeTrue())
			Expect(orgs[0].MemberStatus).To(Equal(orgDatamodel.MemberStatusActive))
		})

		It("should fill in defaults", func() {
			created, err := service.Create(ctx, mayor, organization.CreateOrganizationDTO{Name: "   "})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Name).To(Equal("Untitled Organization"))
			Expect(created.PrimaryContactEmail).To(Equal("mayor@springfield.gov"))
			Expect(created.SetupStatus).To(Equal(orgDatamodel.SetupStatusNotStarted))
		})

		It("should reject an invalid contact email", func() {
			_, err := service.Create(ctx, mayor, organization.CreateOrganizationDTO{PrimaryContactEmail: "nope"})
			Expect(appErrorCode(err)).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("should publish a created event", func() {
			Expect(publisher.actions()).To(Equal([]string{"created"}))
			Expect(publisher.events[0].EntityType).To(Equal(events.EntityOrganization))
			Expect(publisher.events[0].ActorUserID).To(Equal(mayor.ID))
		})
	})

	Describe("profile and setup status", func() {
		It("should apply partial profile updates", func() {
			city := "Springfield"
			updated, err := service.UpdateProfile(ctx, org.ID, mayor.ID, organization.UpdateProfileDTO{City: &city})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.City).To(Equal("Springfield"))
			Expect(updated.Name).To(Equal("Springfield"))
			Expect(publisher.actions()).To(ContainElement("updated"))
		})

		It("should reject an empty name", func() {
			empty := " "
			_, err := service.UpdateProfile(ctx, org.ID, mayor.ID, organization.UpdateProfileDTO{Name: &empty})
			Expect(appErrorCode(err)).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("should stamp completion time", func() {
			status, err := service.UpdateSetupStatus(ctx, org.ID, mayor.ID, organization.UpdateSetupStatusDTO{SetupStatus: "completed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(status.SetupStatus).To(Equal(orgDatamodel.SetupStatusCompleted))
			Expect(status.SetupCompletedAt).NotTo(BeNil())
			Expect(status.SetupSkippedAt).To(BeNil())
			Expect(publisher.actions()).To(ContainElement("setup_status_changed"))
		})

		It("should normalize unknown statuses to not_started", func() {
			_, err := service.UpdateSetupStatus(ctx, org.ID, mayor.ID, organization.UpdateSetupStatusDTO{SetupStatus: "skipped"})
			Expect(err).NotTo(HaveOccurred())

			status, err := service.UpdateSetupStatus(ctx, org.ID, mayor.ID, organization.UpdateSetupStatusDTO{SetupStatus: "bogus"})
			Expect(err).NotTo(HaveOccurred())
			Expect(status.SetupStatus).To(Equal(orgDatamodel.SetupStatusNotStarted))
			Expect(status.SetupSkippedAt).NotTo(BeNil())
		})

		It("should report unknown organizations", func() {
			_, err := service.GetSetupStatus(ctx, "6f9619ff-8b86-d011-b42d-00cf4fc964ff")
			Expect(appErrorCode(err)).To(Equal(internal.ErrCodeOrganizationNotFound))
		})
	})

	Describe("org roles", func() {
		It("should store the normalized matrix", func() {
			role, err := service.CreateRole(ctx, org.ID, mayor.ID, organization.CreateOrgRoleDTO{
				Name:        "Zoning Clerk",
				Permissions: permission.LegacyList("mapping.edit"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(role.Permissions.Allows(permission.ToolMappingZoning, permission.ActionEdit)).To(BeTrue())

			var row orgDatamodel.OrgRole
			Expect(db.Where("id = ?", role.ID).First(&row).Error).To(Succeed())
			Expect(row.Permissions.Kind()).To(Equal(permission.KindMatrix))
		})

		It("should create inactive roles on request", func() {
			inactive := false
			role, err := service.CreateRole(ctx, org.ID, mayor.ID, organization.CreateOrgRoleDTO{Name: "Dormant", IsActive: &inactive})
			Expect(err).NotTo(HaveOccurred())
			Expect(role.IsActive).To(BeFalse())
		})

		It("should reject duplicate names ignoring case", func() {
			_, err := service.CreateRole(ctx, org.ID, mayor.ID, organization.CreateOrgRoleDTO{Name: "planner"})
			Expect(appErrorCode(err)).To(Equal(internal.ErrCodeOrgRoleExists))
		})

		It("should reject an empty name", func() {
			_, err := service.CreateRole(ctx, org.ID, mayor.ID, organization.CreateOrgRoleDTO{Name: "  "})
			Expect(appErrorCode(err)).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("should update name and permissions", func() {
			roles, err := service.ListRoles(ctx, org.ID)
			Expect(err).NotTo(HaveOccurred())
			reviewer := roles[3]

			name := "Senior Reviewer"
			perms := permission.MatrixPayload(permission.Empty().With(permission.ToolApprovals, permission.Entry{View: true, Edit: true}))
			updated, err := service.UpdateRole(ctx, org.ID, reviewer.ID, mayor.ID, organization.UpdateOrgRoleDTO{Name: &name, Permissions: &perms})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Senior Reviewer"))
			Expect(updated.Permissions.Allows(permission.ToolApprovals, permission.ActionEdit)).To(BeTrue())
			Expect(updated.Permissions.Allows(permission.ToolMappingZoning, permission.ActionView)).To(BeFalse())
		})

		It("should refuse to rename onto another role", func() {
			roles, err := service.ListRoles(ctx, org.ID)
			Expect(err).NotTo(HaveOccurred())
			name := "ADMIN"
			_, err = service.UpdateRole(ctx, org.ID, roles[3].ID, mayor.ID, organization.UpdateOrgRoleDTO{Name: &name})
			Expect(appErrorCode(err)).To(Equal(internal.ErrCodeOrgRoleExists))
		})

		It("should update a permissions matrix in bulk", func() {
			roles, err := service.ListRoles(ctx, org.ID)
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.UpdatePermissionsMatrix(ctx, org.ID, mayor.ID, organization.PermissionsMatrixDTO{
				Roles: []organization.RolePermissionsDTO{
					{ID: roles[2].ID, Permissions: permission.Wildcard()},
					{ID: roles[3].ID, Permissions: permission.LegacyList()},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(HaveLen(2))
			Expect(updated[0].Permissions).To(Equal(permission.Full()))
			Expect(updated[1].Permissions.IsEmpty()).To(BeTrue())
			Expect(publisher.actions()).To(ContainElement("permissions_matrix_updated"))

			reloaded, err := service.ListRoles(ctx, org.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded[2].Permissions).To(Equal(permission.Full()))
		})

		It("should skip roles of other organizations", func() {
			other, err := service.Create(ctx, mayor, organization.CreateOrganizationDTO{Name: "Shelbyville"})
			Expect(err).NotTo(HaveOccurred())
			foreign, err := service.ListRoles(ctx, other.ID)
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.UpdatePermissionsMatrix(ctx, org.ID, mayor.ID, organization.PermissionsMatrixDTO{
				Roles: []organization.RolePermissionsDTO{
					{ID: foreign[3].ID, Permissions: permission.Wildcard()},
					{ID: "", Permissions: permission.Wildcard()},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeEmpty())

			untouched, err := service.ListRoles(ctx, other.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(untouched[3].Permissions.Allows(permission.ToolMappingZoning, permission.ActionEdit)).To(BeFalse())
		})

		It("should delete a role and detach its members", func() {
			member, err := service.AddMember(ctx, org.ID, mayor.ID, organization.AddMemberDTO{Email: planner.Email, Role: "Planner"})
			Expect(err).NotTo(HaveOccurred())
			Expect(member.Role.Name).To(Equal("Planner"))

			Expect(service.DeleteRole(ctx, org.ID, member.Role.ID, mayor.ID)).To(Succeed())

			reloaded, err := service.GetMember(ctx, org.ID, member.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Role).To(BeNil())
			Expect(publisher.actions()).To(ContainElement("deleted"))
		})
	})

	Describe("members", func() {
		It("should add a member by email with a role", func() {
			member, err := service.AddMember(ctx, org.ID, mayor.ID, organization.AddMemberDTO{Email: "PLANNER@springfield.gov", Role: "reviewer"})
			Expect(err).NotTo(HaveOccurred())
			Expect(member.UserID).To(Equal(planner.ID))
			Expect(member.Name).To(Equal("Lisa Simpson"))
			Expect(member.Role.Name).To(Equal("Reviewer"))
			Expect(member.Status).To(Equal(orgDatamodel.MemberStatusActive))
		})

		It("should refuse duplicates", func() {
			_, err := service.AddMember(ctx, org.ID, mayor.ID, organization.AddMemberDTO{UserID: mayor.ID})
			Expect(appErrorCode(err)).To(Equal(internal.ErrCodeMemberExists))
		})

		It("should report unknown users and roles", func() {
			_, err := service.AddMember(ctx, org.ID, mayor.ID, organization.AddMemberDTO{Email: "ghost@springfield.gov"})
			Expect(appErrorCode(err)).To(Equal(internal.ErrCodeUserNotFound))

			_, err = service.AddMember(ctx, org.ID, mayor.ID, organization.AddMemberDTO{UserID: planner.ID, Role: "Janitor"})
			Expect(appErrorCode(err)).To(Equal(internal.ErrCodeOrgRoleNotFound))
		})

		It("should change a role by name and record it", func() {
			member, err := service.AddMember(ctx, org.ID, mayor.ID, organization.AddMemberDTO{UserID: planner.ID, Role: "Reviewer"})
			Expect(err).NotTo(HaveOccurred())

			changed, err := service.ChangeMemberRole(ctx, org.ID, member.ID, mayor.ID, organization.ChangeRoleDTO{Role: "city official"})
			Expect(err).NotTo(HaveOccurred())
			Expect(changed.Role.Name).To(Equal("City Official"))
			Expect(publisher.actions()).To(ContainElement("changed_role"))
		})

		It("should change a role by id", func() {
			member, err := service.AddMember(ctx, org.ID, mayor.ID, organization.AddMemberDTO{UserID: planner.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(member.Role).To(BeNil())

			roles, err := service.ListRoles(ctx, org.ID)
			Expect(err).NotTo(HaveOccurred())
			changed, err := service.ChangeMemberRole(ctx, org.ID, member.ID, mayor.ID, organization.ChangeRoleDTO{Role: roles[2].ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(changed.Role.ID).To(Equal(roles[2].ID))
		})

		It("should deactivate and later reactivate a member", func() {
			member, err := service.AddMember(ctx, org.ID, mayor.ID, organization.AddMemberDTO{UserID: planner.ID})
			Expect(err).NotTo(HaveOccurred())

			deactivated, err := service.DeactivateMember(ctx, org.ID, member.ID, mayor.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deactivated.Status).To(Equal(orgDatamodel.MemberStatusDeactivated))
			Expect(deactivated.DeactivatedAt).NotTo(BeNil())
			Expect(publisher.actions()).To(ContainElement("deactivated"))

			back, err := service.AddMember(ctx, org.ID, mayor.ID, organization.AddMemberDTO{UserID: planner.ID, Status: "pending_invite"})
			Expect(err).NotTo(HaveOccurred())
			Expect(back.ID).To(Equal(member.ID))
			Expect(back.Status).To(Equal(orgDatamodel.MemberStatusPendingInvite))
			Expect(back.DeactivatedAt).To(BeNil())
		})

		It("should report unknown members", func() {
			_, err := service.DeactivateMember(ctx, org.ID, "6f9619ff-8b86-d011-b42d-00cf4fc964ff", mayor.ID)
			Expect(appErrorCode(err)).To(Equal(internal.ErrCodeMemberNotFound))
		})

		It("should paginate with a clamped limit", func() {
			_, err := service.AddMember(ctx, org.ID, mayor.ID, organization.AddMemberDTO{UserID: planner.ID})
			Expect(err).NotTo(HaveOccurred())

			page, err := service.ListMembers(ctx, org.ID, organization.ListMembersQuery{Page: 1, Limit: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Members).To(HaveLen(1))
			Expect(page.Pagination.Total).To(Equal(int64(2)))
			Expect(page.Pagination.TotalPages).To(Equal(2))

			page, err = service.ListMembers(ctx, org.ID, organization.ListMembersQuery{Limit: 500, Status: "all"})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Pagination.Limit).To(Equal(100))
			Expect(page.Members).To(HaveLen(2))
		})
	})

	Describe("DescribePermissions", func() {
		It("should report org admins as holding everything", func() {
			oc := &access.OrgContext{
				OrganizationID: org.ID,
				Membership:     &access.Membership{ID: "m-1", IsOrgAdmin: true},
			}
			out := service.DescribePermissions(planner, oc)
			Expect(out.IsOrgAdmin).To(BeTrue())
			Expect(out.IsSystemManager).To(BeFalse())
			Expect(out.Permissions).To(Equal(permission.Full()))
		})

		It("should merge system and organization permissions", func() {
			user := &auth.User{ID: planner.ID, Roles: []auth.Role{{Name: "viewer", Permissions: permission.LegacyList("legislation.read")}}}
			oc := &access.OrgContext{
				OrganizationID: org.ID,
				Membership: &access.Membership{ID: "m-2", OrgRole: &access.OrgRole{
					ID: "r-1", Name: "Mapper", IsActive: true, Permissions: permission.LegacyList("mapping.edit"),
				}},
			}
			out := service.DescribePermissions(user, oc)
			Expect(out.Role.Name).To(Equal("Mapper"))
			Expect(out.Permissions.Allows(permission.ToolLegislation, permission.ActionView)).To(BeTrue())
			Expect(out.Permissions.Allows(permission.ToolMappingZoning, permission.ActionEdit)).To(BeTrue())
			Expect(out.Permissions.Allows(permission.ToolLegislation, permission.ActionEdit)).To(BeFalse())
		})
	})

	It("should page through audit logs recorded by the sink", func() {
		sink := audit.NewSink(db, nil)
		for _, e := range publisher.events {
			Expect(sink.Record(ctx, e)).To(Succeed())
		}
		rows, pagination, err := service.AuditLogs(ctx, org.ID, 1, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(pagination.Total).To(Equal(int64(1)))
		Expect(rows[0].Action).To(Equal("created"))
	})
})
