package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/eduplatform/eduplatform-api/internal/identity"
	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type CreateUserParams struct {
	FullName   string
	Email      string
	Password   string
	Role       models.UserRole
	Phone      string
	Address    string
	GradeLevel string
	Subjects   []string
	Classes    []string
	Children   []int64
}

type UpdateProfileParams struct {
	FullName   *string
	Email      *string
	Password   *string
	Phone      *string
	Address    *string
	GradeLevel *string
	Subjects   []string
	Classes    []string
	Children   []int64
	Workload   *int
}

type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	ListStudentsByClass(ctx context.Context, classID string) ([]models.User, error)
	UpdateProfile(ctx context.Context, id int64, params UpdateProfileParams) (models.User, error)
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	db  *sql.DB
	seq identity.Sequence
}

func NewUserRepository(db *sql.DB, seq identity.Sequence) UserRepository {
	return &userRepository{db: db, seq: seq}
}

const userColumns = `id, full_name, email, password_hash, role, phone, address, is_active, grade_level, subjects, classes, workload, children, notification_preferences, permissions, created_at`

func (u *userRepository) Create(ctx context.Context, params CreateUserParams) (models.User, error) {
	role := models.NormalizeRole(params.Role)
	if !models.IsValidRole(role) {
		return models.User{}, errors.Errorf("invalid role %q", params.Role)
	}
	if role == models.RoleStudent && strings.TrimSpace(params.GradeLevel) == "" {
		return models.User{}, errors.New("student registration requires a grade level")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}

	id, err := u.seq.Next(ctx)
	if err != nil {
		return models.User{}, err
	}

	var permissions []string
	if role == models.RoleAdmin {
		permissions = models.DefaultAdminPermissions
	}
	var preferences map[string]bool
	if role == models.RoleParent {
		preferences = map[string]bool{"low_grade_alert": true}
	}

	subjects, err := marshalJSONB(params.Subjects)
	if err != nil {
		return models.User{}, err
	}
	classes, err := marshalJSONB(params.Classes)
	if err != nil {
		return models.User{}, err
	}
	children, err := marshalJSONB(params.Children)
	if err != nil {
		return models.User{}, err
	}
	prefs, err := marshalJSONB(preferences)
	if err != nil {
		return models.User{}, err
	}
	perms, err := marshalJSONB(permissions)
	if err != nil {
		return models.User{}, err
	}

	const query = `
		INSERT INTO edu.users (id, full_name, email, password_hash, role, phone, address, is_active, grade_level, subjects, classes, children, notification_preferences, permissions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $10, $11, $12, $13)
		RETURNING ` + userColumns
	row := u.db.QueryRowContext(ctx, query,
		id,
		strings.TrimSpace(params.FullName),
		strings.ToLower(strings.TrimSpace(params.Email)),
		string(hash),
		role,
		strings.TrimSpace(params.Phone),
		strings.TrimSpace(params.Address),
		strings.TrimSpace(params.GradeLevel),
		subjects,
		classes,
		children,
		prefs,
		perms,
	)
	return scanUser(row)
}

func (u *userRepository) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := u.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errors.New("invalid credentials")
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, errors.New("user is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.New("invalid credentials")
	}
	return user, nil
}

func (u *userRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM edu.users
		WHERE id = $1 AND deleted_at IS NULL
	`
	return scanUser(u.db.QueryRowContext(ctx, query, id))
}

func (u *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM edu.users
		WHERE email = $1 AND deleted_at IS NULL
	`
	return scanUser(u.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (u *userRepository) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM edu.users
		WHERE role = $1 AND deleted_at IS NULL
		ORDER BY full_name
	`
	return u.queryUsers(ctx, query, models.NormalizeRole(role))
}

func (u *userRepository) ListStudentsByClass(ctx context.Context, classID string) ([]models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM edu.users
		WHERE role = 'student' AND grade_level = $1 AND deleted_at IS NULL
		ORDER BY full_name
	`
	return u.queryUsers(ctx, query, classID)
}

func (u *userRepository) UpdateProfile(ctx context.Context, id int64, params UpdateProfileParams) (models.User, error) {
	current, err := u.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if params.FullName != nil {
		current.FullName = strings.TrimSpace(*params.FullName)
	}
	if params.Email != nil {
		current.Email = strings.ToLower(strings.TrimSpace(*params.Email))
	}
	if params.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, errors.Wrap(err, "hash password")
		}
		current.PasswordHash = string(hash)
	}
	if params.Phone != nil {
		current.Phone = strings.TrimSpace(*params.Phone)
	}
	if params.Address != nil {
		current.Address = strings.TrimSpace(*params.Address)
	}
	if params.GradeLevel != nil {
		current.GradeLevel = strings.TrimSpace(*params.GradeLevel)
	}
	if params.Workload != nil {
		current.Workload = *params.Workload
	}
	current.Subjects = mergeUnique(current.Subjects, params.Subjects)
	current.Classes = mergeUnique(current.Classes, params.Classes)
	current.Children = mergeUniqueIDs(current.Children, params.Children)

	subjects, err := marshalJSONB(current.Subjects)
	if err != nil {
		return models.User{}, err
	}
	classes, err := marshalJSONB(current.Classes)
	if err != nil {
		return models.User{}, err
	}
	children, err := marshalJSONB(current.Children)
	if err != nil {
		return models.User{}, err
	}

	const query = `
		UPDATE edu.users
		SET full_name = $2, email = $3, password_hash = $4, phone = $5, address = $6,
		    grade_level = $7, subjects = $8, classes = $9, workload = $10, children = $11,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	row := u.db.QueryRowContext(ctx, query,
		id,
		current.FullName,
		current.Email,
		current.PasswordHash,
		current.Phone,
		current.Address,
		current.GradeLevel,
		subjects,
		classes,
		current.Workload,
		children,
	)
	return scanUser(row)
}

func (u *userRepository) Delete(ctx context.Context, id int64) error {
	const query = `
		UPDATE edu.users
		SET is_active = FALSE, deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := u.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (u *userRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := u.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func scanUser(scanner interface {
	Scan(dest ...interface{}) error
}) (models.User, error) {
	var (
		user        models.User
		phone       sql.NullString
		address     sql.NullString
		gradeLevel  sql.NullString
		subjectsRaw []byte
		classesRaw  []byte
		childrenRaw []byte
		prefsRaw    []byte
		permsRaw    []byte
	)
	if err := scanner.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&phone,
		&address,
		&user.IsActive,
		&gradeLevel,
		&subjectsRaw,
		&classesRaw,
		&user.Workload,
		&childrenRaw,
		&prefsRaw,
		&permsRaw,
		&user.CreatedAt,
	); err != nil {
		return models.User{}, err
	}

	user.Phone = phone.String
	user.Address = address.String
	user.GradeLevel = gradeLevel.String
	if err := unmarshalJSONB(subjectsRaw, &user.Subjects); err != nil {
		return models.User{}, err
	}
	if err := unmarshalJSONB(classesRaw, &user.Classes); err != nil {
		return models.User{}, err
	}
	if err := unmarshalJSONB(childrenRaw, &user.Children); err != nil {
		return models.User{}, err
	}
	if err := unmarshalJSONB(prefsRaw, &user.NotificationPreferences); err != nil {
		return models.User{}, err
	}
	if err := unmarshalJSONB(permsRaw, &user.Permissions); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func mergeUnique(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]bool, len(existing))
	merged := append([]string(nil), existing...)
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range incoming {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			merged = append(merged, v)
		}
	}
	return merged
}

func mergeUniqueIDs(existing, incoming []int64) []int64 {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[int64]bool, len(existing))
	merged := append([]int64(nil), existing...)
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range incoming {
		if !seen[v] {
			seen[v] = true
			merged = append(merged, v)
		}
	}
	return merged
}
