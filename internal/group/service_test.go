package group

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/fitaichain/fitchain/internal/db"
	"github.com/fitaichain/fitchain/internal/models"

	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "group-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUsers(t *testing.T, conn *gorm.DB, ids ...uint64) {
	t.Helper()
	for _, id := range ids {
		user := models.User{ID: id, Username: fmt.Sprintf("user-%d", id), VerificationType: models.VerificationGuest}
		if errCreate := conn.Create(&user).Error; errCreate != nil {
			t.Fatalf("seed user %d: %v", id, errCreate)
		}
	}
}

// staggerJoinedAt spreads join timestamps so successor ordering is stable.
func staggerJoinedAt(t *testing.T, conn *gorm.DB, groupID uint64, order ...uint64) {
	t.Helper()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, userID := range order {
		if errUpdate := conn.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Update("joined_at", base.Add(time.Duration(i)*time.Minute)).Error; errUpdate != nil {
			t.Fatalf("stagger joined_at: %v", errUpdate)
		}
	}
}

func roleOf(t *testing.T, conn *gorm.DB, groupID, userID uint64) models.GroupRole {
	t.Helper()
	var row models.GroupMember
	if errFind := conn.Where("group_id = ? AND user_id = ?", groupID, userID).First(&row).Error; errFind != nil {
		t.Fatalf("load member: %v", errFind)
	}
	return row.Role
}

func TestCreate_EnrollsCreatorAsAdmin(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn, 1)
	svc := NewService(conn)

	record, errCreate := svc.Create(context.Background(), CreateParams{Name: "  morning crew  ", CreatorID: 1})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if record.Name != "morning crew" {
		t.Fatalf("expected trimmed name, got %q", record.Name)
	}
	if record.MaxMembers != 50 {
		t.Fatalf("expected default cap 50, got %d", record.MaxMembers)
	}
	if roleOf(t, conn, record.ID, 1) != models.GroupRoleAdmin {
		t.Fatalf("creator must be admin")
	}
}

func TestCreate_RejectsBlankName(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)

	if _, errCreate := svc.Create(context.Background(), CreateParams{Name: "   ", CreatorID: 1}); !errors.Is(errCreate, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", errCreate)
	}
}

func TestJoin_DuplicateAndCap(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn, 1, 2, 3)
	svc := NewService(conn)

	record, errCreate := svc.Create(context.Background(), CreateParams{Name: "tiny", CreatorID: 1, MaxMembers: 2})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	if _, errJoin := svc.Join(context.Background(), record.ID, 2); errJoin != nil {
		t.Fatalf("join: %v", errJoin)
	}
	if _, errJoin := svc.Join(context.Background(), record.ID, 2); !errors.Is(errJoin, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", errJoin)
	}
	if _, errJoin := svc.Join(context.Background(), record.ID, 3); !errors.Is(errJoin, ErrGroupFull) {
		t.Fatalf("expected ErrGroupFull, got %v", errJoin)
	}
	if _, errJoin := svc.Join(context.Background(), 999, 3); !errors.Is(errJoin, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", errJoin)
	}
}

func TestLeave_AdminTransfersToNextJoined(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn, 1, 2, 3)
	svc := NewService(conn)

	record, errCreate := svc.Create(context.Background(), CreateParams{Name: "squad", CreatorID: 1})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	for _, id := range []uint64{2, 3} {
		if _, errJoin := svc.Join(context.Background(), record.ID, id); errJoin != nil {
			t.Fatalf("join %d: %v", id, errJoin)
		}
	}
	staggerJoinedAt(t, conn, record.ID, 1, 2, 3)

	if errLeave := svc.Leave(context.Background(), record.ID, 1); errLeave != nil {
		t.Fatalf("leave: %v", errLeave)
	}
	if roleOf(t, conn, record.ID, 2) != models.GroupRoleAdmin {
		t.Fatalf("next-joined member must inherit admin")
	}
	if roleOf(t, conn, record.ID, 3) != models.GroupRoleMember {
		t.Fatalf("later member must stay regular")
	}
}

func TestLeave_NonAdminKeepsAdminInPlace(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn, 1, 2)
	svc := NewService(conn)

	record, errCreate := svc.Create(context.Background(), CreateParams{Name: "squad", CreatorID: 1})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if _, errJoin := svc.Join(context.Background(), record.ID, 2); errJoin != nil {
		t.Fatalf("join: %v", errJoin)
	}
	staggerJoinedAt(t, conn, record.ID, 1, 2)

	if errLeave := svc.Leave(context.Background(), record.ID, 2); errLeave != nil {
		t.Fatalf("leave: %v", errLeave)
	}
	if roleOf(t, conn, record.ID, 1) != models.GroupRoleAdmin {
		t.Fatalf("admin must keep the role")
	}
}

func TestLeave_LastMemberDeletesGroup(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn, 1)
	svc := NewService(conn)

	record, errCreate := svc.Create(context.Background(), CreateParams{Name: "solo", CreatorID: 1})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if errLeave := svc.Leave(context.Background(), record.ID, 1); errLeave != nil {
		t.Fatalf("leave: %v", errLeave)
	}

	if _, errGet := svc.Get(context.Background(), record.ID); !errors.Is(errGet, ErrNotFound) {
		t.Fatalf("expected deleted group, got %v", errGet)
	}
}

func TestSearch_CaseInsensitiveAndPublicOnly(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn, 1)
	svc := NewService(conn)

	for _, params := range []CreateParams{
		{Name: "Morning Runners", CreatorID: 1},
		{Name: "night owls", CreatorID: 1},
		{Name: "Secret Runners", CreatorID: 1, IsPrivate: true},
	} {
		if _, errCreate := svc.Create(context.Background(), params); errCreate != nil {
			t.Fatalf("create %q: %v", params.Name, errCreate)
		}
	}

	rows, errSearch := svc.Search(context.Background(), "RUNNERS", 0)
	if errSearch != nil {
		t.Fatalf("search: %v", errSearch)
	}
	if len(rows) != 1 || rows[0].Name != "Morning Runners" {
		t.Fatalf("unexpected results: %+v", rows)
	}

	rows, errSearch = svc.Search(context.Background(), "", 0)
	if errSearch != nil {
		t.Fatalf("search all: %v", errSearch)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 public groups, got %d", len(rows))
	}
}

func TestLeave_NotAMember(t *testing.T) {
	conn := openTestDB(t)
	seedUsers(t, conn, 1, 2)
	svc := NewService(conn)

	record, errCreate := svc.Create(context.Background(), CreateParams{Name: "squad", CreatorID: 1})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if errLeave := svc.Leave(context.Background(), record.ID, 2); !errors.Is(errLeave, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", errLeave)
	}
}
