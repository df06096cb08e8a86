package membermodule

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mantonx/seasontracker/internal/auth"
	"github.com/mantonx/seasontracker/internal/database"
	"gorm.io/gorm"
)

var (
	// ErrMemberNotFound is returned when no member matches the lookup.
	ErrMemberNotFound = errors.New("member not found")
	// ErrMemberExists is returned when the email is already registered.
	ErrMemberExists = errors.New("member already exists")
	// ErrRoleNotGranted is returned by RevokeRole when the member lacks the role.
	ErrRoleNotGranted = errors.New("role not granted")
)

// MemberSummary is a member with its granted roles.
type MemberSummary struct {
	database.Member
	Roles []string `json:"roles"`
}

// MemberRepository stores members and their roles. It is the auth.MemberLookup
// and auth.RoleSource of the server.
type MemberRepository struct {
	db *gorm.DB
}

var (
	_ auth.MemberLookup = (*MemberRepository)(nil)
	_ auth.RoleSource   = (*MemberRepository)(nil)
)

// NewMemberRepository creates a repository over db.
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts member with the given roles in one transaction.
func (r *MemberRepository) Create(ctx context.Context, member *database.Member, roles ...string) error {
	member.ID = 0
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&database.Member{}).Where("email = ?", member.Email).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check member email: %w", err)
		}
		if existing > 0 {
			return ErrMemberExists
		}

		if err := tx.Create(member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrMemberExists
			}
			return fmt.Errorf("failed to create member: %w", err)
		}

		for _, role := range dedupe(roles) {
			if err := tx.Create(&database.MemberRole{MemberID: member.ID, Role: role}).Error; err != nil {
				return fmt.Errorf("failed to grant role %s: %w", role, err)
			}
		}
		return nil
	})
}

// Get loads a member by id.
func (r *MemberRepository) Get(ctx context.Context, id uint32) (*database.Member, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByEmail loads a member by email.
func (r *MemberRepository) FindByEmail(ctx context.Context, email string) (*database.Member, error) {
	return r.first(ctx, "email = ?", email)
}

// FindByTokenHash loads the member owning the token hash.
func (r *MemberRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*database.Member, error) {
	return r.first(ctx, "token_hash = ?", tokenHash)
}

func (r *MemberRepository) first(ctx context.Context, where string, arg interface{}) (*database.Member, error) {
	var member database.Member
	if err := r.db.WithContext(ctx).Where(where, arg).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	return &member, nil
}

// CallerByTokenHash implements auth.MemberLookup.
func (r *MemberRepository) CallerByTokenHash(ctx context.Context, tokenHash string) (auth.Caller, error) {
	member, err := r.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return auth.Caller{}, auth.ErrUnknownToken
		}
		return auth.Caller{}, err
	}
	return auth.Caller{MemberID: member.ID, Name: member.Name}, nil
}

// Roles implements auth.RoleSource. Roles are sorted.
func (r *MemberRepository) Roles(ctx context.Context, memberID uint32) ([]string, error) {
	roles := []string{}
	err := r.db.WithContext(ctx).Model(&database.MemberRole{}).
		Where("member_id = ?", memberID).
		Order("role ASC").
		Pluck("role", &roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load roles for member %d: %w", memberID, err)
	}
	return roles, nil
}

// GrantRole gives role to the member. Granting a held role is a no-op.
func (r *MemberRepository) GrantRole(ctx context.Context, memberID uint32, role string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member database.Member
		if err := tx.First(&member, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return fmt.Errorf("failed to load member %d: %w", memberID, err)
		}

		grant := database.MemberRole{MemberID: memberID, Role: role}
		if err := tx.Where(&grant).FirstOrCreate(&grant).Error; err != nil {
			return fmt.Errorf("failed to grant role %s: %w", role, err)
		}
		return nil
	})
}

// RevokeRole removes role from the member.
func (r *MemberRepository) RevokeRole(ctx context.Context, memberID uint32, role string) error {
	res := r.db.WithContext(ctx).
		Where("member_id = ? AND role = ?", memberID, role).
		Delete(&database.MemberRole{})
	if res.Error != nil {
		return fmt.Errorf("failed to revoke role %s: %w", role, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRoleNotGranted
	}
	return nil
}

// RotateToken replaces the member's token hash.
func (r *MemberRepository) RotateToken(ctx context.Context, memberID uint32, tokenHash string) error {
	res := r.db.WithContext(ctx).Model(&database.Member{}).
		Where("id = ?", memberID).
		Update("token_hash", tokenHash)
	if res.Error != nil {
		return fmt.Errorf("failed to rotate token for member %d: %w", memberID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// List returns every member with its roles, ordered by id.
func (r *MemberRepository) List(ctx context.Context) ([]MemberSummary, error) {
	var members []database.Member
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	var grants []database.MemberRole
	if err := r.db.WithContext(ctx).Order("role ASC").Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	byMember := make(map[uint32][]string)
	for _, g := range grants {
		byMember[g.MemberID] = append(byMember[g.MemberID], g.Role)
	}

	out := make([]MemberSummary, 0, len(members))
	for _, m := range members {
		roles := byMember[m.ID]
		if roles == nil {
			roles = []string{}
		}
		out = append(out, MemberSummary{Member: m, Roles: roles})
	}
	return out, nil
}

func dedupe(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
