package repository

import (
	"strconv"

	"github.com/spec-kit/service-desk/internal/domain"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 50
)

// NormalizePage clamps 1-based pagination parameters to sane bounds.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func pageOffset(page, limit int) int {
	return (page - 1) * limit
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// flagClause renders the emergency/custom_position filter combinatorics.
// The rule set is carried over from the product contract as-is: requesting
// a single flag excludes rows carrying the other one, requesting both
// means "either", and requesting neither degenerates to no filtering at
// all. Known to be debatable UX; do not "fix" here without product
// sign-off.
func flagClause(emergency, customPosition bool) string {
	switch {
	case emergency && customPosition:
		return "(emergency OR custom_position)"
	case emergency:
		return "(emergency AND NOT custom_position)"
	case customPosition:
		return "(custom_position AND NOT emergency)"
	default:
		return "TRUE"
	}
}

func viewedColumn(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "viewed_admin"
	case domain.RoleCustomer:
		return "viewed_customer"
	case domain.RoleExecutor:
		return "viewed_executor"
	default:
		return ""
	}
}

func orderClause(sort domain.SortOrder) string {
	if sort == domain.SortDateAsc {
		return "updated_at ASC"
	}
	return "updated_at DESC"
}
