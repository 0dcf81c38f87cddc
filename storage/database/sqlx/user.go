package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/user"
)

const userTable = `"user"`

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     null.Bool      `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

var userColumns = []string{
	"id", "name", "username", "email", "is_active", "roles",
	"password_hash", "created_at", "updated_at", "last_login",
}

func newUserRow(usr user.User) userRow {
	row := userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
	if usr.IsActive != nil {
		row.IsActive = null.BoolFrom(*usr.IsActive)
	}
	if !usr.LastLogin.IsZero() {
		row.LastLogin = null.TimeFrom(usr.LastLogin)
	}
	return row
}

func (row userRow) toUser() user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
	if row.IsActive.Valid {
		usr.SetActive(row.IsActive.Bool)
	}
	return usr
}

func (row userRow) values() []interface{} {
	return []interface{}{
		row.ID, row.Name, row.Username, row.Email, row.IsActive, row.Roles,
		row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin,
	}
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	if username == "" && email == "" {
		return nil
	}

	clash := sq.Or{}
	if username != "" {
		clash = append(clash, sq.Eq{"username": username})
	}
	if email != "" {
		clash = append(clash, sq.Eq{"email": email})
	}
	qb := psql.Select("COUNT(*) AS count").From(userTable).Where(clash)
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		qb = qb.Where(sq.NotEq{"id": ids})
	}

	var counts []struct {
		Count int `db:"count"`
	}
	if err := selectQuery(ctx, getExec(repo.db, exec), &counts, qb); err != nil {
		return err
	}
	if len(counts) > 0 && counts[0].Count > 0 {
		return user.ErrUserExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	qb := psql.Insert(userTable).Columns(userColumns...).Values(newUserRow(usr).values()...)
	if _, err := execQuery(ctx, getExec(repo.db, exec), qb); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	qb := psql.Select(userColumns...).From(userTable)

	if filter != nil {
		filter.Clean()
		if filter.Search != "" {
			pattern := "%" + filter.Search + "%"
			qb = qb.Where(sq.Or{
				sq.ILike{"name": pattern},
				sq.ILike{"username": pattern},
				sq.ILike{"email": pattern},
			})
		}
		if len(filter.Roles) > 0 {
			qb = qb.Where("roles && ?", pq.StringArray(filter.Roles))
		}
		if filter.IsActive != nil {
			qb = qb.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if !filter.CreatedFrom.IsZero() {
			qb = qb.Where(sq.GtOrEq{"created_at": filter.CreatedFrom})
		}
		if !filter.CreatedTo.IsZero() {
			qb = qb.Where(sq.LtOrEq{"created_at": filter.CreatedTo})
		}
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	for _, ord := range ordering {
		qb = qb.OrderBy(ord.String())
	}

	var rows []userRow
	if err := selectQuery(ctx, getExec(repo.db, exec), &rows, qb); err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	qb := psql.Select(userColumns...).From(userTable).Limit(1)
	switch {
	case filter.ID != "":
		qb = qb.Where(sq.Eq{"id": filter.ID})
	case filter.Username != "":
		qb = qb.Where(sq.Eq{"username": filter.Username})
	case filter.Email != "":
		qb = qb.Where(sq.Eq{"email": filter.Email})
	case len(filter.UsernameOrEmail) > 0:
		qb = qb.Where(sq.Or{
			sq.Eq{"username": filter.UsernameOrEmail},
			sq.Eq{"email": filter.UsernameOrEmail},
		})
	default:
		return user.User{}, user.ErrNotFound
	}

	var rows []userRow
	if err := selectQuery(ctx, getExec(repo.db, exec), &rows, qb); err != nil {
		return user.User{}, err
	}
	if len(rows) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return rows[0].toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := newUserRow(usr)
	qb := psql.Update(userTable).
		Set("name", row.Name).
		Set("username", row.Username).
		Set("email", row.Email).
		Set("is_active", row.IsActive).
		Set("roles", row.Roles).
		Set("password_hash", row.PasswordHash).
		Set("updated_at", row.UpdatedAt).
		Set("last_login", row.LastLogin).
		Where(sq.Eq{"id": usr.ID})

	res, err := execQuery(ctx, getExec(repo.db, exec), qb)
	if err != nil {
		return user.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	existing, err := repo.GetUser(ctx, user.GetFilter{Username: usr.Username}, exec...)
	if err != nil {
		if err == user.ErrNotFound {
			return repo.CreateUser(ctx, usr, exec...)
		}
		return user.User{}, err
	}
	usr.ID = existing.ID
	usr.CreatedAt = existing.CreatedAt
	return repo.UpdateUser(ctx, usr, exec...)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := execQuery(ctx, getExec(repo.db, exec), psql.Delete(userTable).Where(sq.Eq{"id": ids}))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
