package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/evaluation"
	"hrportal/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensurePermissions(ctx, pool); err != nil {
		return err
	}

	roleIDs, err := ensureRoles(ctx, pool)
	if err != nil {
		return err
	}

	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return err
	}

	if err := ensureAdminUser(ctx, pool, roleIDs[auth.RoleAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}

	if cfg.SeedCriteria {
		if err := ensureCriteriaCatalog(ctx, pool); err != nil {
			return err
		}
	}

	return nil
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, perm := range auth.DefaultPermissions {
		_, err := pool.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool) (map[string]int64, error) {
	roleIDs := map[string]int64{}
	for roleName := range auth.RolePermissions {
		var id int64
		err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", roleName).Scan(&id)
		if err == nil {
			roleIDs[roleName] = id
			continue
		}

		err = pool.QueryRow(ctx, "INSERT INTO roles (name) VALUES ($1) RETURNING id", roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]int64) error {
	permMap := map[string]int64{}
	rows, err := pool.Query(ctx, "SELECT id, key FROM permissions")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		permMap[key] = id
	}

	for roleName, perms := range auth.RolePermissions {
		roleID := roleIDs[roleName]
		for _, permKey := range perms {
			permID, ok := permMap[permKey]
			if !ok {
				return errors.New("permission not found: " + permKey)
			}
			_, err := pool.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleID, permID)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, roleID int64, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id int64
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return pool.QueryRow(ctx, "INSERT INTO users (email, password_hash, role_id, status) VALUES ($1, $2, $3, 'active') RETURNING id", email, hash, roleID).Scan(&id)
}

type seedCriterion struct {
	kind  evaluation.CriteriaType
	label string
	roles []evaluation.Role
}

type seedGroup struct {
	name  string
	items []seedCriterion
}

// Default catalog used by fresh installations. Labels keep the French wording
// the evaluation forms were written with.
var defaultCatalog = []seedGroup{
	{
		name: "Compétences techniques",
		items: []seedCriterion{
			{evaluation.TypeNumeric, "Maîtrise des outils et technologies", []evaluation.Role{evaluation.RoleEmployee, evaluation.RoleApprover}},
			{evaluation.TypeNumeric, "Qualité des livrables", []evaluation.Role{evaluation.RoleEmployee, evaluation.RoleApprover}},
			{evaluation.TypeObservation, "Points forts observés sur la mission", []evaluation.Role{evaluation.RoleEmployee, evaluation.RoleApprover}},
		},
	},
	{
		name: "Comportement professionnel",
		items: []seedCriterion{
			{evaluation.TypeNumeric, "Respect des délais", []evaluation.Role{evaluation.RoleEmployee, evaluation.RoleApprover}},
			{evaluation.TypeBoolean, "Respect des règles internes du client", []evaluation.Role{evaluation.RoleEmployee, evaluation.RoleApprover}},
			{evaluation.TypeObservation, "Axes d'amélioration", []evaluation.Role{evaluation.RoleEmployee, evaluation.RoleApprover}},
		},
	},
	{
		name: "Communication",
		items: []seedCriterion{
			{evaluation.TypeNumeric, "Communication avec l'équipe", []evaluation.Role{evaluation.RoleEmployee, evaluation.RoleApprover}},
			{evaluation.TypeBoolean, "Participation aux réunions", []evaluation.Role{evaluation.RoleEmployee, evaluation.RoleApprover}},
			{evaluation.TypeCommentaire, "Commentaire général", []evaluation.Role{evaluation.RoleEmployee, evaluation.RoleApprover}},
		},
	},
}

// ensureCriteriaCatalog seeds the default catalog only when no groups exist so
// installations with a customized catalog are never overwritten.
func ensureCriteriaCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM criteria_groups").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for groupPos, group := range defaultCatalog {
		var groupID int64
		err := pool.QueryRow(ctx,
			"INSERT INTO criteria_groups (name, position) VALUES ($1, $2) RETURNING id",
			group.name, groupPos+1,
		).Scan(&groupID)
		if err != nil {
			return err
		}

		for itemPos, item := range group.items {
			for _, role := range item.roles {
				_, err := pool.Exec(ctx,
					"INSERT INTO criteria_items (group_id, role, type, label, position) VALUES ($1, $2, $3, $4, $5)",
					groupID, string(role), string(item.kind), item.label, itemPos+1,
				)
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}
