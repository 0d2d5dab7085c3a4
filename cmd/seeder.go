package cmd

import (
	"fmt"
	"log"

	"github.com/mkalenga/unigest/internal/authz"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		seedOrgTree(db)
		seedUsersAndGrants(db)
	},
}

func seedOrgTree(db *gorm.DB) {
	faculties := []struct {
		Name string
		Code string
	}{
		{"Faculty of Sciences", "SCI"},
		{"Faculty of Medicine", "MED"},
		{"Faculty of Law", "LAW"},
	}

	for _, f := range faculties {
		var exists int
		if err := db.Raw("SELECT 1 FROM faculties WHERE code = ?", f.Code).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO faculties (name, code, created_at, updated_at) VALUES (?, ?, now(), now())", f.Name, f.Code).Error; err != nil {
			log.Fatalf("failed to insert faculty %s: %v", f.Code, err)
		}
		fmt.Println("Seeded faculty:", f.Name)
	}

	departments := []struct {
		Name        string
		Code        string
		FacultyCode string
	}{
		{"Mathematics", "MATH", "SCI"},
		{"Physics", "PHYS", "SCI"},
		{"Computer Science", "CS", "SCI"},
		{"General Medicine", "GMED", "MED"},
		{"Public Law", "PLAW", "LAW"},
	}

	for _, d := range departments {
		var facultyID int64
		if err := db.Raw("SELECT id FROM faculties WHERE code = ?", d.FacultyCode).Row().Scan(&facultyID); err != nil {
			log.Fatalf("faculty not found for department %s: %v", d.Code, err)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM departments WHERE code = ?", d.Code).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO departments (faculty_id, name, code, created_at, updated_at) VALUES (?, ?, ?, now(), now())", facultyID, d.Name, d.Code).Error; err != nil {
			log.Fatalf("failed to insert department %s: %v", d.Code, err)
		}
		fmt.Println("Seeded department:", d.Name)
	}

	promotions := []struct {
		Name           string
		AcademicYear   string
		DepartmentCode string
	}{
		{"L1 Mathematics", "2025-2026", "MATH"},
		{"L2 Mathematics", "2025-2026", "MATH"},
		{"L1 Physics", "2025-2026", "PHYS"},
		{"L1 Computer Science", "2025-2026", "CS"},
		{"D1 General Medicine", "2025-2026", "GMED"},
	}

	for _, p := range promotions {
		var departmentID int64
		if err := db.Raw("SELECT id FROM departments WHERE code = ?", p.DepartmentCode).Row().Scan(&departmentID); err != nil {
			log.Fatalf("department not found for promotion %s: %v", p.Name, err)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM promotions WHERE department_id = ? AND name = ? AND academic_year = ?", departmentID, p.Name, p.AcademicYear).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO promotions (department_id, name, academic_year, created_at, updated_at) VALUES (?, ?, ?, now(), now())", departmentID, p.Name, p.AcademicYear).Error; err != nil {
			log.Fatalf("failed to insert promotion %s: %v", p.Name, err)
		}
		fmt.Println("Seeded promotion:", p.Name)
	}
}

func seedUsersAndGrants(db *gorm.DB) {
	password := "password"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	users := []struct {
		Email string
		Name  string
	}{
		{"rector@unigest.dev", "Amina Kapinga"},
		{"dean.sci@unigest.dev", "Joseph Ilunga"},
		{"head.math@unigest.dev", "Claire Mbuyi"},
		{"jury.l1math@unigest.dev", "Patrice Kasongo"},
		{"registry@unigest.dev", "Sarah Tshala"},
	}

	for _, u := range users {
		var exists int
		if err := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row().Scan(&exists); err == nil {
			fmt.Println("user already exists:", u.Email)
			continue
		}
		if err := db.Exec("INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, true, now(), now())", u.Email, u.Name, string(hash)).Error; err != nil {
			log.Fatalf("failed to insert user %s: %v", u.Email, err)
		}
		fmt.Println("Seeded user:", u.Email)
	}

	userID := func(email string) int64 {
		var id int64
		if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err != nil {
			log.Fatalf("failed to lookup user %s: %v", email, err)
		}
		return id
	}

	var sciFacultyID, mathDeptID, l1MathPromoID int64
	if err := db.Raw("SELECT id FROM faculties WHERE code = 'SCI'").Row().Scan(&sciFacultyID); err != nil {
		log.Fatalf("failed to lookup SCI faculty: %v", err)
	}
	if err := db.Raw("SELECT id FROM departments WHERE code = 'MATH'").Row().Scan(&mathDeptID); err != nil {
		log.Fatalf("failed to lookup MATH department: %v", err)
	}
	if err := db.Raw("SELECT id FROM promotions WHERE name = 'L1 Mathematics'").Row().Scan(&l1MathPromoID); err != nil {
		log.Fatalf("failed to lookup L1 Mathematics promotion: %v", err)
	}

	rectorID := userID("rector@unigest.dev")

	grants := []struct {
		Email        string
		Role         authz.Role
		ScopeType    authz.ScopeType
		FacultyID    *int64
		DepartmentID *int64
		PromotionID  *int64
	}{
		{"rector@unigest.dev", authz.RoleRector, authz.ScopeUniversity, nil, nil, nil},
		{"dean.sci@unigest.dev", authz.RoleDean, authz.ScopeFaculty, &sciFacultyID, nil, nil},
		{"head.math@unigest.dev", authz.RoleDepartmentHead, authz.ScopeDepartment, nil, &mathDeptID, nil},
		{"jury.l1math@unigest.dev", authz.RoleJuryPresident, authz.ScopePromotion, nil, nil, &l1MathPromoID},
		{"registry@unigest.dev", authz.RoleRegistryHead, authz.ScopeUniversity, nil, nil, nil},
	}

	for _, g := range grants {
		uid := userID(g.Email)

		var exists int
		if err := db.Raw(
			"SELECT 1 FROM user_role_grants WHERE user_id = ? AND role = ? AND COALESCE(faculty_id, 0) = COALESCE(?, 0) AND COALESCE(department_id, 0) = COALESCE(?, 0) AND is_active",
			uid, string(g.Role), g.FacultyID, g.DepartmentID,
		).Row().Scan(&exists); err == nil {
			continue
		}

		if err := db.Exec(
			"INSERT INTO user_role_grants (user_id, role, scope_type, faculty_id, department_id, promotion_id, is_primary, granted_by, granted_at, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, true, ?, now(), true, now(), now())",
			uid, string(g.Role), string(g.ScopeType), g.FacultyID, g.DepartmentID, g.PromotionID, rectorID,
		).Error; err != nil {
			log.Fatalf("failed to grant %s to %s: %v", g.Role, g.Email, err)
		}
		fmt.Printf("Granted %s to %s\n", g.Role, g.Email)
	}

	fmt.Println("Seed complete; all sample users log in with password:", password)
}
