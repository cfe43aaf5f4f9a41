package domain

import (
	"testing"
	"time"
)

func TestNewPublicIDFormat(t *testing.T) {
	if got := NewPublicID(2025, 0); got != "STU-2025-1000" {
		t.Fatalf("first id = %q", got)
	}
	if got := NewPublicID(2025, 41); got != "STU-2025-1041" {
		t.Fatalf("42nd id = %q", got)
	}
}

func TestInSuccessRegistry(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		reg  Registration
		want bool
	}{
		{
			name: "admission done, no loan needed",
			reg: Registration{Lifecycle: Lifecycle{
				AdmissionCompleted: true,
				LoanRequired:       false,
			}},
			want: true,
		},
		{
			name: "admission done, loan still open",
			reg: Registration{Lifecycle: Lifecycle{
				AdmissionCompleted: true,
				LoanRequired:       true,
			}},
			want: false,
		},
		{
			name: "admission and loan both done",
			reg: Registration{Lifecycle: Lifecycle{
				AdmissionCompleted: true,
				LoanRequired:       true,
				LoanCompleted:      true,
			}},
			want: true,
		},
		{
			name: "admission not done",
			reg:  Registration{Lifecycle: Lifecycle{LoanRequired: false}},
			want: false,
		},
		{
			name: "soft-deleted never counts",
			reg: Registration{
				Lifecycle: Lifecycle{AdmissionCompleted: true},
				DeletedAt: &now,
			},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.reg.InSuccessRegistry(); got != tc.want {
				t.Fatalf("InSuccessRegistry() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOwnerAfterAdmission(t *testing.T) {
	if got := OwnerAfterAdmission(true); got != OwnerLoan {
		t.Fatalf("loan required routes to %q", got)
	}
	if got := OwnerAfterAdmission(false); got != OwnerDone {
		t.Fatalf("no loan routes to %q", got)
	}
}
