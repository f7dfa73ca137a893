package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/feedbackbank/internal/db"
	"github.com/mind-engage/feedbackbank/internal/ordering"
)

const (
	moduleCols   = `id, title, description, position, created_at, updated_at`
	questionCols = `id, module_id, title, description, position, created_at, updated_at`
	elementCols  = `id, module_id, question_id, content, position, created_at, updated_at`
	siblingOrder = `position ASC, created_at ASC, id ASC`
)

// SQLStore implements Store over database/sql. Queries use $n placeholders,
// which both pgx and modernc sqlite accept. Timestamps are unix nanos.
type SQLStore struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewSQLStore(dbh *sql.DB, now func() time.Time) *SQLStore {
	if now == nil {
		now = time.Now
	}
	return &SQLStore{db: dbh, now: now, newID: uuid.NewString}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) stamp() int64 { return s.now().UTC().UnixNano() }

func fromStamp(n int64) time.Time { return time.Unix(0, n).UTC() }

/* ------------------------------ modules ------------------------------ */

func (s *SQLStore) ListModules(ctx context.Context) ([]Module, error) {
	mods, err := queryModules(ctx, s.db, `SELECT `+moduleCols+` FROM feedback_modules ORDER BY `+siblingOrder)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	qs, err := queryQuestions(ctx, s.db, `SELECT `+questionCols+` FROM feedback_questions ORDER BY module_id, `+siblingOrder)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	els, err := queryElements(ctx, s.db, `SELECT `+elementCols+` FROM feedback_elements ORDER BY module_id, `+siblingOrder)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	return assemble(mods, qs, els), nil
}

func (s *SQLStore) GetModule(ctx context.Context, id string) (Module, error) {
	m, err := scanModule(s.db.QueryRowContext(ctx, `SELECT `+moduleCols+` FROM feedback_modules WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Module{}, notFound("Module")
		}
		return Module{}, err
	}
	return s.withChildren(ctx, m)
}

func (s *SQLStore) CreateModule(ctx context.Context, in ModuleInput) (Module, error) {
	ts := s.stamp()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO feedback_modules (`+moduleCols+`)
		VALUES ($1, $2, $3, COALESCE((SELECT MAX(position) FROM feedback_modules), 0) + 1, $4, $4)
		RETURNING `+moduleCols,
		s.newID(), in.Title, nullIfEmpty(in.Description), ts)
	m, err := scanModule(row)
	if err != nil {
		return Module{}, fmt.Errorf("create module: %w", err)
	}
	return m, nil
}

func (s *SQLStore) UpdateModule(ctx context.Context, id string, in ModuleInput) (Module, error) {
	set, args := updateSet("title", in.Title, s.stamp(), in.Description, in.Position)
	args = append(args, id)
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE feedback_modules SET %s WHERE id = $%d RETURNING %s`, set, len(args), moduleCols),
		args...)
	m, err := scanModule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Module{}, notFound("Module")
		}
		return Module{}, fmt.Errorf("update module: %w", err)
	}
	return s.withChildren(ctx, m)
}

// DeleteModule removes the module and every descendant row in one
// transaction. The FK cascades would do the same on a connection with
// foreign keys enabled; the explicit deletes do not depend on that.
func (s *SQLStore) DeleteModule(ctx context.Context, id string) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM feedback_elements WHERE module_id = $1`, id); err != nil {
			return fmt.Errorf("delete module elements: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM feedback_questions WHERE module_id = $1`, id); err != nil {
			return fmt.Errorf("delete module questions: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM feedback_modules WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete module: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound("Module")
		}
		return nil
	})
}

func (s *SQLStore) ReorderModules(ctx context.Context, ups []ordering.Update) error {
	ts := s.stamp()
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, u := range ups {
			if _, err := tx.ExecContext(ctx,
				`UPDATE feedback_modules SET position = $1, updated_at = $2 WHERE id = $3`,
				u.Position, ts, u.ID); err != nil {
				return fmt.Errorf("reorder modules: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) CountModules(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback_modules`).Scan(&n)
	return n, err
}

/* ----------------------------- questions ----------------------------- */

func (s *SQLStore) ListQuestions(ctx context.Context, moduleID string) ([]Question, error) {
	ok, err := exists(ctx, s.db, `SELECT 1 FROM feedback_modules WHERE id = $1`, moduleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("Module")
	}
	qs, err := queryQuestions(ctx, s.db,
		`SELECT `+questionCols+` FROM feedback_questions WHERE module_id = $1 ORDER BY `+siblingOrder, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	els, err := queryElements(ctx, s.db,
		`SELECT `+elementCols+` FROM feedback_elements
		  WHERE module_id = $1 AND question_id IS NOT NULL
		  ORDER BY `+siblingOrder, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list question elements: %w", err)
	}
	attachElements(qs, els)
	return qs, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, moduleID, questionID string) (Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionCols+` FROM feedback_questions WHERE id = $1 AND module_id = $2`, questionID, moduleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, notFound("Question")
		}
		return Question{}, err
	}
	return s.withElements(ctx, q)
}

func (s *SQLStore) CreateQuestion(ctx context.Context, moduleID string, in QuestionInput) (Question, error) {
	ok, err := exists(ctx, s.db, `SELECT 1 FROM feedback_modules WHERE id = $1`, moduleID)
	if err != nil {
		return Question{}, err
	}
	if !ok {
		return Question{}, notFound("Module")
	}
	ts := s.stamp()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO feedback_questions (`+questionCols+`)
		VALUES ($1, $2, $3, $4, COALESCE((SELECT MAX(position) FROM feedback_questions WHERE module_id = $2), 0) + 1, $5, $5)
		RETURNING `+questionCols,
		s.newID(), moduleID, in.Title, nullIfEmpty(in.Description), ts)
	q, err := scanQuestion(row)
	if err != nil {
		return Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, moduleID, questionID string, in QuestionInput) (Question, error) {
	set, args := updateSet("title", in.Title, s.stamp(), in.Description, in.Position)
	args = append(args, questionID, moduleID)
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE feedback_questions SET %s WHERE id = $%d AND module_id = $%d RETURNING %s`,
			set, len(args)-1, len(args), questionCols),
		args...)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, notFound("Question")
		}
		return Question{}, fmt.Errorf("update question: %w", err)
	}
	return s.withElements(ctx, q)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, moduleID, questionID string) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM feedback_elements WHERE question_id = $1`, questionID); err != nil {
			return fmt.Errorf("delete question elements: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM feedback_questions WHERE id = $1 AND module_id = $2`, questionID, moduleID)
		if err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound("Question")
		}
		return nil
	})
}

func (s *SQLStore) ReorderQuestions(ctx context.Context, moduleID string, ups []ordering.Update) error {
	ts := s.stamp()
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT 1 FROM feedback_modules WHERE id = $1`, moduleID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("Module")
		}
		for _, u := range ups {
			if _, err := tx.ExecContext(ctx,
				`UPDATE feedback_questions SET position = $1, updated_at = $2 WHERE id = $3 AND module_id = $4`,
				u.Position, ts, u.ID, moduleID); err != nil {
				return fmt.Errorf("reorder questions: %w", err)
			}
		}
		return nil
	})
}

/* ------------------------------ elements ----------------------------- */

func (s *SQLStore) CreateElement(ctx context.Context, scope Scope, in ElementInput) (Element, error) {
	if err := s.requireParent(ctx, s.db, scope); err != nil {
		return Element{}, err
	}
	maxExpr := `SELECT MAX(position) FROM feedback_elements WHERE module_id = $2 AND question_id IS NULL`
	if scope.QuestionID != "" {
		maxExpr = `SELECT MAX(position) FROM feedback_elements WHERE question_id = $3`
	}
	ts := s.stamp()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO feedback_elements (`+elementCols+`)
		VALUES ($1, $2, $3, $4, COALESCE((`+maxExpr+`), 0) + 1, $5, $5)
		RETURNING `+elementCols,
		s.newID(), scope.ModuleID, nullIfEmpty(&scope.QuestionID), in.Content, ts)
	e, err := scanElement(row)
	if err != nil {
		return Element{}, fmt.Errorf("create element: %w", err)
	}
	return e, nil
}

func (s *SQLStore) UpdateElement(ctx context.Context, scope Scope, elementID string, in ElementInput) (Element, error) {
	args := []any{in.Content, s.stamp()}
	set := []string{"content = $1", "updated_at = $2"}
	if in.Position != nil {
		args = append(args, *in.Position)
		set = append(set, fmt.Sprintf("position = $%d", len(args)))
	}
	args = append(args, elementID)
	idArg := len(args)
	where, scopeArgs := scopeWhere(scope, len(args)+1)
	args = append(args, scopeArgs...)

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE feedback_elements SET %s WHERE id = $%d AND %s RETURNING %s`,
			strings.Join(set, ", "), idArg, where, elementCols),
		args...)
	e, err := scanElement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Element{}, notFound("Element")
		}
		return Element{}, fmt.Errorf("update element: %w", err)
	}
	return e, nil
}

func (s *SQLStore) DeleteElement(ctx context.Context, scope Scope, elementID string) error {
	where, scopeArgs := scopeWhere(scope, 2)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM feedback_elements WHERE id = $1 AND `+where,
		append([]any{elementID}, scopeArgs...)...)
	if err != nil {
		return fmt.Errorf("delete element: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("Element")
	}
	return nil
}

func (s *SQLStore) ReorderElements(ctx context.Context, scope Scope, ups []ordering.Update) error {
	ts := s.stamp()
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.requireParent(ctx, tx, scope); err != nil {
			return err
		}
		where, scopeArgs := scopeWhere(scope, 4)
		stmt := `UPDATE feedback_elements SET position = $1, updated_at = $2 WHERE id = $3 AND ` + where
		for _, u := range ups {
			args := append([]any{u.Position, ts, u.ID}, scopeArgs...)
			if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
				return fmt.Errorf("reorder elements: %w", err)
			}
		}
		return nil
	})
}

/* ------------------------------ helpers ------------------------------ */

func (s *SQLStore) requireParent(ctx context.Context, q queryer, scope Scope) error {
	var (
		ok  bool
		err error
	)
	if scope.QuestionID != "" {
		ok, err = exists(ctx, q, `SELECT 1 FROM feedback_questions WHERE id = $1 AND module_id = $2`, scope.QuestionID, scope.ModuleID)
	} else {
		ok, err = exists(ctx, q, `SELECT 1 FROM feedback_modules WHERE id = $1`, scope.ModuleID)
	}
	if err != nil {
		return err
	}
	if !ok {
		return notFound(scope.parentEntity())
	}
	return nil
}

func (s *SQLStore) withChildren(ctx context.Context, m Module) (Module, error) {
	qs, err := queryQuestions(ctx, s.db,
		`SELECT `+questionCols+` FROM feedback_questions WHERE module_id = $1 ORDER BY `+siblingOrder, m.ID)
	if err != nil {
		return Module{}, fmt.Errorf("load questions: %w", err)
	}
	els, err := queryElements(ctx, s.db,
		`SELECT `+elementCols+` FROM feedback_elements WHERE module_id = $1 ORDER BY `+siblingOrder, m.ID)
	if err != nil {
		return Module{}, fmt.Errorf("load elements: %w", err)
	}
	return assemble([]Module{m}, qs, els)[0], nil
}

func (s *SQLStore) withElements(ctx context.Context, q Question) (Question, error) {
	els, err := queryElements(ctx, s.db,
		`SELECT `+elementCols+` FROM feedback_elements WHERE question_id = $1 ORDER BY `+siblingOrder, q.ID)
	if err != nil {
		return Question{}, fmt.Errorf("load elements: %w", err)
	}
	q.Elements = els
	return q, nil
}

// updateSet builds the SET clause shared by module and question updates.
// Description and position are only written when supplied. An omitted
// description is kept, not cleared; send "" to clear it.
func updateSet(titleCol, title string, ts int64, desc *string, pos *int) (string, []any) {
	args := []any{title, ts}
	set := []string{titleCol + " = $1", "updated_at = $2"}
	if desc != nil {
		args = append(args, nullIfEmpty(desc))
		set = append(set, fmt.Sprintf("description = $%d", len(args)))
	}
	if pos != nil {
		args = append(args, *pos)
		set = append(set, fmt.Sprintf("position = $%d", len(args)))
	}
	return strings.Join(set, ", "), args
}

// scopeWhere returns the predicate selecting one element sibling set,
// numbering its placeholders from next.
func scopeWhere(scope Scope, next int) (string, []any) {
	if scope.QuestionID != "" {
		return fmt.Sprintf("module_id = $%d AND question_id = $%d", next, next+1),
			[]any{scope.ModuleID, scope.QuestionID}
	}
	return fmt.Sprintf("module_id = $%d AND question_id IS NULL", next), []any{scope.ModuleID}
}

// assemble attaches questions and elements to their modules. Input slices
// must already be in sibling order; grouping keeps that order.
func assemble(mods []Module, qs []Question, els []Element) []Module {
	modIdx := make(map[string]int, len(mods))
	for i := range mods {
		modIdx[mods[i].ID] = i
	}
	for _, q := range qs {
		if i, ok := modIdx[q.ModuleID]; ok {
			mods[i].Questions = append(mods[i].Questions, q)
		}
	}
	type loc struct{ m, q int }
	qIdx := make(map[string]loc, len(qs))
	for mi := range mods {
		for qi := range mods[mi].Questions {
			qIdx[mods[mi].Questions[qi].ID] = loc{mi, qi}
		}
	}
	for _, e := range els {
		if e.QuestionID == nil {
			if i, ok := modIdx[e.ModuleID]; ok {
				mods[i].Elements = append(mods[i].Elements, e)
			}
			continue
		}
		if l, ok := qIdx[*e.QuestionID]; ok {
			q := &mods[l.m].Questions[l.q]
			q.Elements = append(q.Elements, e)
		}
	}
	return mods
}

func attachElements(qs []Question, els []Element) {
	idx := make(map[string]int, len(qs))
	for i := range qs {
		idx[qs[i].ID] = i
	}
	for _, e := range els {
		if e.QuestionID == nil {
			continue
		}
		if i, ok := idx[*e.QuestionID]; ok {
			qs[i].Elements = append(qs[i].Elements, e)
		}
	}
}

func exists(ctx context.Context, q queryer, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func nullIfEmpty(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func queryModules(ctx context.Context, q queryer, query string, args ...any) ([]Module, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Module{}
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func queryQuestions(ctx context.Context, q queryer, query string, args ...any) ([]Question, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		qq, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, qq)
	}
	return out, rows.Err()
}

func queryElements(ctx context.Context, q queryer, query string, args ...any) ([]Element, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Element{}
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanModule(sc scanner) (Module, error) {
	var (
		m                Module
		desc             sql.NullString
		created, updated int64
	)
	if err := sc.Scan(&m.ID, &m.Title, &desc, &m.Position, &created, &updated); err != nil {
		return Module{}, err
	}
	m.Description = nullableString(desc)
	m.CreatedAt, m.UpdatedAt = fromStamp(created), fromStamp(updated)
	m.Questions = []Question{}
	m.Elements = []Element{}
	return m, nil
}

func scanQuestion(sc scanner) (Question, error) {
	var (
		q                Question
		desc             sql.NullString
		created, updated int64
	)
	if err := sc.Scan(&q.ID, &q.ModuleID, &q.Title, &desc, &q.Position, &created, &updated); err != nil {
		return Question{}, err
	}
	q.Description = nullableString(desc)
	q.CreatedAt, q.UpdatedAt = fromStamp(created), fromStamp(updated)
	q.Elements = []Element{}
	return q, nil
}

func scanElement(sc scanner) (Element, error) {
	var (
		e                Element
		qid              sql.NullString
		created, updated int64
	)
	if err := sc.Scan(&e.ID, &e.ModuleID, &qid, &e.Content, &e.Position, &created, &updated); err != nil {
		return Element{}, err
	}
	e.QuestionID = nullableString(qid)
	e.CreatedAt, e.UpdatedAt = fromStamp(created), fromStamp(updated)
	return e, nil
}
