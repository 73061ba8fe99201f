package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikasavnish/parentportal/internal/db/dbtest"
	"github.com/vikasavnish/parentportal/internal/models"
)

func seedParent(t *testing.T, s AccountStore, email string) models.Parent {
	t.Helper()
	token := "tok-" + email
	p := models.Parent{
		FirstName:       "Raj",
		LastName:        "Doe",
		Email:           email,
		HashedPassword:  "x",
		ActivationToken: &token,
	}
	require.NoError(t, s.CreateParent(&p))
	return p
}

func seedChild(t *testing.T, s AccountStore, parentID uint, name string, added time.Time) models.Child {
	t.Helper()
	c := models.Child{Name: name, ParentID: parentID, DateAdded: added}
	require.NoError(t, s.CreateChild(&c))
	return c
}

func TestParentLookups(t *testing.T) {
	s := NewAccountStore(dbtest.Open(t))
	p := seedParent(t, s, "raj@example.com")
	require.NotZero(t, p.ID)

	byID, err := s.GetParentByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "raj@example.com", byID.Email)

	byEmail, err := s.GetParentByEmail("raj@example.com")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byEmail.ID)

	byToken, err := s.GetParentByActivationToken("tok-raj@example.com")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byToken.ID)

	_, err = s.GetParentByID(p.ID + 100)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.GetParentByEmail("nobody@example.com")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.GetParentByActivationToken("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEmailTaken(t *testing.T) {
	s := NewAccountStore(dbtest.Open(t))
	a := seedParent(t, s, "a@example.com")
	seedParent(t, s, "b@example.com")

	taken, err := s.EmailTaken("a@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.EmailTaken("a@example.com", a.ID)
	require.NoError(t, err)
	assert.False(t, taken, "own email is not taken")

	taken, err = s.EmailTaken("b@example.com", a.ID)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestDuplicateEmailRejectedByIndex(t *testing.T) {
	s := NewAccountStore(dbtest.Open(t))
	seedParent(t, s, "a@example.com")

	dup := models.Parent{Email: "a@example.com", HashedPassword: "y"}
	err := s.CreateParent(&dup)
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

	other := seedParent(t, s, "b@example.com")
	other.Email = "a@example.com"
	err = s.SaveParent(&other)
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)
}

func TestListChildrenInsertionOrderAndPaging(t *testing.T) {
	s := NewAccountStore(dbtest.Open(t))
	p := seedParent(t, s, "a@example.com")
	other := seedParent(t, s, "b@example.com")

	now := time.Now().UTC()
	seedChild(t, s, p.ID, "Ann", now)
	seedChild(t, s, other.ID, "Zed", now)
	seedChild(t, s, p.ID, "Bob", now)
	seedChild(t, s, p.ID, "Cat", now)

	kids, err := s.ListChildren(p.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, kids, 3)
	assert.Equal(t, []string{"Ann", "Bob", "Cat"}, names(kids))

	page, err := s.ListChildren(p.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, names(page))

	empty, err := s.ListChildren(p.ID+100, 0, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestFilterChildren(t *testing.T) {
	s := NewAccountStore(dbtest.Open(t))
	p := seedParent(t, s, "a@example.com")

	day := func(d int) time.Time { return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC) }
	seedChild(t, s, p.ID, "Little John", day(1))
	seedChild(t, s, p.ID, "Joanna", day(5))
	seedChild(t, s, p.ID, "Mary", day(10))
	seedChild(t, s, p.ID, "john", day(12))

	tests := []struct {
		name   string
		filter models.ChildFilter
		want   []string
	}{
		{"no filters", models.ChildFilter{}, []string{"Little John", "Joanna", "Mary", "john"}},
		{"name contains is case sensitive", models.ChildFilter{NameContains: "Jo"}, []string{"Little John", "Joanna"}},
		{"percent is literal", models.ChildFilter{NameContains: "%"}, []string{}},
		{"added after is inclusive", models.ChildFilter{AddedAfter: ptrTime(day(5))}, []string{"Joanna", "Mary", "john"}},
		{"filters are conjunctive", models.ChildFilter{AddedAfter: ptrTime(day(5)), NameContains: "Jo"}, []string{"Joanna"}},
		{"paging after filtering", models.ChildFilter{NameContains: "o", Skip: 1, Limit: 1}, []string{"Joanna"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.filter
			f.ParentID = p.ID
			kids, err := s.FilterChildren(f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(kids))
		})
	}
}

func TestSaveChildKeepsImmutableColumns(t *testing.T) {
	s := NewAccountStore(dbtest.Open(t))
	p := seedParent(t, s, "a@example.com")
	added := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	c := seedChild(t, s, p.ID, "Little John", added)

	c.Name = "Little Jane"
	c.DateAdded = time.Now().UTC()
	require.NoError(t, s.SaveChild(&c))

	got, err := s.GetChild(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Little Jane", got.Name)
	assert.True(t, got.DateAdded.Equal(added), "date_added changed to %v", got.DateAdded)
}

func TestPage(t *testing.T) {
	skip, limit := Page(-3, 0)
	assert.Equal(t, 0, skip)
	assert.Equal(t, DefaultLimit, limit)

	_, limit = Page(0, 5000)
	assert.Equal(t, MaxLimit, limit)
}

func TestTransactorCommitAndRollback(t *testing.T) {
	gdb := dbtest.Open(t)
	tx := NewTransactor(gdb)
	ctx := context.Background()

	var ran []string
	err := tx.Do(ctx, func(uow UnitOfWork) error {
		seedParent(t, uow.Accounts(), "keep@example.com")
		uow.AfterCommit(func() { ran = append(ran, "committed") })
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"committed"}, ran)

	boom := errors.New("boom")
	err = tx.Do(ctx, func(uow UnitOfWork) error {
		seedParent(t, uow.Accounts(), "drop@example.com")
		uow.AfterCommit(func() { ran = append(ran, "should not run") })
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []string{"committed"}, ran)

	assert.Equal(t, []string{"committed"}, ran, "rollback hooks only run on failure")

	var undone []string
	err = tx.Do(ctx, func(uow UnitOfWork) error {
		uow.AfterRollback(func() { undone = append(undone, "undone") })
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []string{"undone"}, undone)

	require.NoError(t, tx.Do(ctx, func(uow UnitOfWork) error {
		uow.AfterRollback(func() { undone = append(undone, "should not run") })
		return nil
	}))
	assert.Equal(t, []string{"undone"}, undone)

	s := NewAccountStore(gdb)
	_, err = s.GetParentByEmail("keep@example.com")
	assert.NoError(t, err)
	_, err = s.GetParentByEmail("drop@example.com")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func names(kids []models.Child) []string {
	out := make([]string, 0, len(kids))
	for _, k := range kids {
		out = append(out, k.Name)
	}
	return out
}

func ptrTime(t time.Time) *time.Time { return &t }
