package entities

// ReservationInput carries the validated fields of a new reservation.
type ReservationInput struct {
	Name      string
	Date      string
	Time      string
	PartySize int
	Phone     string
	Notes     string
	Status    Status
}

// ReservationPatch carries a partial update. Nil fields are left untouched in
// the store.
type ReservationPatch struct {
	Name      *string
	Date      *string
	Time      *string
	PartySize *int
	Phone     *string
	Notes     *string
	Status    *Status
}

func (p ReservationPatch) IsEmpty() bool {
	return p.Name == nil && p.Date == nil && p.Time == nil && p.PartySize == nil &&
		p.Phone == nil && p.Notes == nil && p.Status == nil
}

type ChangeKind string

const (
	ChangeStatus ChangeKind = "status"
	ChangeFields ChangeKind = "update"
)

// Change is an explicit update operation chosen by the caller: either a
// status toggle or a general partial update.
type Change struct {
	Kind    ChangeKind
	Arrived bool
	Patch   ReservationPatch
}

func StatusChange(arrived bool) Change {
	return Change{Kind: ChangeStatus, Arrived: arrived}
}

func FieldsChange(patch ReservationPatch) Change {
	return Change{Kind: ChangeFields, Patch: patch}
}
