package models

import "time"

type PointStatus string

const (
	PointPending  PointStatus = "pending"
	PointAccepted PointStatus = "accepted"
	PointDenied   PointStatus = "denied"
)

func (s PointStatus) Valid() bool {
	switch s {
	case PointPending, PointAccepted, PointDenied:
		return true
	}
	return false
}

// Point is a rider's pickup request embedded in a trip.
type Point struct {
	RiderID   string      `json:"idCliente"`
	Address   string      `json:"direccion"`
	Status    PointStatus `json:"estado"`
	CreatedAt time.Time   `json:"creadoEn"`
}

// AddPoint appends p unconditionally, defaulting its status to pending.
func (t *Trip) AddPoint(p Point) {
	if p.Status == "" {
		p.Status = PointPending
	}
	t.Points = append(t.Points, p)
}

// SetPointStatus resolves every pending point of riderID to status.
// Returns the number of points changed.
func (t *Trip) SetPointStatus(riderID string, status PointStatus) (int, error) {
	if status != PointAccepted && status != PointDenied {
		return 0, &ValidationError{Field: "estado", Message: "must be accepted or denied"}
	}
	found, changed := false, 0
	for i := range t.Points {
		if t.Points[i].RiderID != riderID {
			continue
		}
		found = true
		if t.Points[i].Status == PointPending {
			t.Points[i].Status = status
			changed++
		}
	}
	if !found {
		return 0, ErrPointNotFound
	}
	if changed == 0 {
		return 0, transitionError("point", "resolved", string(status))
	}
	return changed, nil
}

// CountPoints returns how many points are in the given status.
func (t *Trip) CountPoints(status PointStatus) int {
	n := 0
	for _, p := range t.Points {
		if p.Status == status {
			n++
		}
	}
	return n
}
