package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vouch/internal/experience/models"
	id "vouch/pkg/domain"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
}

func (s *InMemoryStoreSuite) newEmailRecord(owner id.Address, email id.Email) *models.Experience {
	now := time.Now().UTC()
	return &models.Experience{
		Owner:             owner,
		Seeker:            models.SeekerIdentity{Name: "Alice", Handle: "alice.eth"},
		SeekerAddress:     owner,
		EmployerName:      "Initech",
		EmployerEmail:     email,
		EmployerStatus:    models.EmployerUnregistered,
		Role:              "Engineer",
		AttestationStatus: models.AttestationNotInitiated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (s *InMemoryStoreSuite) TestCreateAssignsMonotonicIDs() {
	first, err := s.store.Create(s.ctx, s.newEmailRecord("0xowner1", "a@x.example"))
	s.Require().NoError(err)
	second, err := s.store.Create(s.ctx, s.newEmailRecord("0xowner2", "b@x.example"))
	s.Require().NoError(err)

	s.Equal(id.ClaimID(1), first)
	s.Equal(id.ClaimID(2), second)
}

func (s *InMemoryStoreSuite) TestGetReturnsCopy() {
	claimID, err := s.store.Create(s.ctx, s.newEmailRecord("0xowner", "a@x.example"))
	s.Require().NoError(err)

	rec, err := s.store.Get(s.ctx, claimID)
	s.Require().NoError(err)
	rec.Role = "tampered"

	again, err := s.store.Get(s.ctx, claimID)
	s.Require().NoError(err)
	s.Equal("Engineer", again.Role)
}

func (s *InMemoryStoreSuite) TestGetUnknownID() {
	_, err := s.store.Get(s.ctx, 42)
	s.ErrorIs(err, ErrNotFound)
}

func (s *InMemoryStoreSuite) TestUpdateUnknownID() {
	rec := s.newEmailRecord("0xowner", "a@x.example")
	rec.ID = 42
	err := s.store.Update(s.ctx, rec, IndexMoves{})
	s.ErrorIs(err, ErrNotFound)
}

func (s *InMemoryStoreSuite) TestOwnerIndexPreservesInsertionOrder() {
	owner := id.Address("0xowner")
	for _, email := range []id.Email{"a@x.example", "b@x.example", "c@x.example"} {
		_, err := s.store.Create(s.ctx, s.newEmailRecord(owner, email))
		s.Require().NoError(err)
	}

	list, err := s.store.ListByOwner(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal(id.ClaimID(1), list[0].ID)
	s.Equal(id.ClaimID(2), list[1].ID)
	s.Equal(id.ClaimID(3), list[2].ID)
}

func (s *InMemoryStoreSuite) TestEmailIndexOnlyForUnregisteredEmployers() {
	rec := s.newEmailRecord("0xowner", "")
	rec.EmployerEmail = ""
	rec.EmployerAddress = "0xemp"
	rec.EmployerStatus = models.EmployerRegistered
	_, err := s.store.Create(s.ctx, rec)
	s.Require().NoError(err)

	list, err := s.store.ListByEmployerEmail(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *InMemoryStoreSuite) TestEmployerIndexAppendedOnMove() {
	claimID, err := s.store.Create(s.ctx, s.newEmailRecord("0xowner", "a@x.example"))
	s.Require().NoError(err)

	rec, err := s.store.Get(s.ctx, claimID)
	s.Require().NoError(err)
	rec.EmployerAddress = "0xemp"
	rec.AttestationStatus = models.AttestationPending
	s.Require().NoError(s.store.Update(s.ctx, rec, IndexMoves{AppendEmployerIndex: true}))

	list, err := s.store.ListByEmployer(s.ctx, "0xemp")
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(claimID, list[0].ID)
}

func (s *InMemoryStoreSuite) TestEmailBindingFirstWriteWins() {
	email := id.Email("hr@initech.example")
	claimID, err := s.store.Create(s.ctx, s.newEmailRecord("0xowner", email))
	s.Require().NoError(err)

	rec, err := s.store.Get(s.ctx, claimID)
	s.Require().NoError(err)
	rec.EmployerAddress = "0xemp"
	rec.EmployerStatus = models.EmployerRegistered
	binding := &models.EmailBinding{Email: email, Address: "0xemp", Handle: "initech.eth", BoundAt: time.Now().UTC()}
	s.Require().NoError(s.store.Update(s.ctx, rec, IndexMoves{BindEmail: binding}))

	got, err := s.store.EmailBinding(s.ctx, email)
	s.Require().NoError(err)
	s.Equal(id.Address("0xemp"), got.Address)

	// A second registration against the same email loses, and nothing about
	// the losing record is written.
	otherID, err := s.store.Create(s.ctx, s.newEmailRecord("0xother", email))
	s.Require().NoError(err)
	other, err := s.store.Get(s.ctx, otherID)
	s.Require().NoError(err)
	other.EmployerAddress = "0ximpostor"
	other.EmployerStatus = models.EmployerRegistered
	rival := &models.EmailBinding{Email: email, Address: "0ximpostor", Handle: "impostor.eth", BoundAt: time.Now().UTC()}
	err = s.store.Update(s.ctx, other, IndexMoves{BindEmail: rival})
	s.ErrorIs(err, ErrConflict)

	unchanged, err := s.store.Get(s.ctx, otherID)
	s.Require().NoError(err)
	s.Equal(models.EmployerUnregistered, unchanged.EmployerStatus)

	got, err = s.store.EmailBinding(s.ctx, email)
	s.Require().NoError(err)
	s.Equal(id.Address("0xemp"), got.Address)
}

func (s *InMemoryStoreSuite) TestEmailBindingUnknownEmail() {
	_, err := s.store.EmailBinding(s.ctx, "nobody@x.example")
	s.ErrorIs(err, ErrNotFound)
}

func (s *InMemoryStoreSuite) TestRemoveEmailIndexKeepsOtherClaims() {
	email := id.Email("hr@initech.example")
	firstID, err := s.store.Create(s.ctx, s.newEmailRecord("0xowner1", email))
	s.Require().NoError(err)
	secondID, err := s.store.Create(s.ctx, s.newEmailRecord("0xowner2", email))
	s.Require().NoError(err)

	rec, err := s.store.Get(s.ctx, firstID)
	s.Require().NoError(err)
	rec.EmployerAddress = "0xemp"
	rec.EmployerStatus = models.EmployerRegistered
	rec.EmployerEmail = ""
	rec.AttestationStatus = models.AttestationPending
	moves := IndexMoves{
		AppendEmployerIndex: true,
		RemoveEmailIndex:    true,
		BindEmail:           &models.EmailBinding{Email: email, Address: "0xemp", Handle: "initech.eth", BoundAt: time.Now().UTC()},
	}
	s.Require().NoError(s.store.Update(s.ctx, rec, moves))

	list, err := s.store.ListByEmployerEmail(s.ctx, email)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(secondID, list[0].ID)
}
