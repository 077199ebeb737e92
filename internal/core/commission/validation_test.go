package commission

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	today := date("2024-06-15")

	tests := []struct {
		name string
		in   ValidationInput
		want FormErrors
	}{
		{
			name: "valid new commission",
			in: ValidationInput{
				Date:      date("2024-06-15"),
				EndDate:   datePtr("2025-06-14"),
				Status:    StatusCurrent,
				Submitted: Submitted{Date: true, EndDate: true, Status: true},
				Accepted:  true,
				Today:     today,
			},
			want: FormErrors{},
		},
		{
			name: "end date equal to start date",
			in: ValidationInput{
				Date:      date("2024-06-15"),
				EndDate:   datePtr("2024-06-15"),
				Status:    StatusCurrent,
				Submitted: Submitted{Date: true, EndDate: true},
				Accepted:  true,
				Today:     today,
			},
			want: FormErrors{FieldEndDate: MsgEndBeforeStart},
		},
		{
			name: "end date order only checked when submitted",
			in: ValidationInput{
				Date:      date("2024-06-15"),
				EndDate:   datePtr("2024-06-01"),
				Status:    StatusRevoked,
				Submitted: Submitted{Date: true},
				Accepted:  true,
				Today:     today,
			},
			want: FormErrors{},
		},
		{
			name: "overlap reported on submitted date fields",
			in: ValidationInput{
				Date:      date("2024-06-01"),
				Status:    StatusCurrent,
				Submitted: Submitted{Date: true, EndDate: true},
				Accepted:  true,
				Others:    []Period{{ID: "COMM-001", Status: StatusCurrent, Start: date("2024-01-01")}},
				Today:     today,
			},
			want: FormErrors{FieldDate: MsgOverlap, FieldEndDate: MsgOverlap},
		},
		{
			name: "overlap reported on status when no dates submitted",
			in: ValidationInput{
				CommissionID: "COMM-002",
				Date:         date("2024-06-01"),
				Status:       StatusSuspended,
				Submitted:    Submitted{Status: true},
				Accepted:     true,
				Others:       []Period{{ID: "COMM-001", Status: StatusSuspended, Start: date("2024-01-01"), End: datePtr("2024-07-01")}},
				Today:        today,
			},
			want: FormErrors{FieldStatus: MsgOverlap},
		},
		{
			name: "inactive commissions may overlap",
			in: ValidationInput{
				Date:      date("2024-06-01"),
				Status:    StatusRevoked,
				Submitted: Submitted{Status: true},
				Others:    []Period{{ID: "COMM-001", Status: StatusCurrent, Start: date("2024-01-01")}},
				Today:     today,
			},
			want: FormErrors{},
		},
		{
			name: "current requires accepted verification",
			in: ValidationInput{
				Date:      date("2024-06-01"),
				Status:    StatusCurrent,
				Submitted: Submitted{Status: true},
				Accepted:  false,
				Today:     today,
			},
			want: FormErrors{FieldStatus: MsgNotVerified},
		},
		{
			name: "active status past end date",
			in: ValidationInput{
				Date:      date("2024-01-01"),
				EndDate:   datePtr("2024-06-15"),
				Status:    StatusSuspended,
				Submitted: Submitted{Status: true, StatusReason: true},
				Accepted:  true,
				Today:     today,
			},
			want: FormErrors{FieldStatus: MsgPastEndDate},
		},
		{
			name: "past end date overrides verification error",
			in: ValidationInput{
				Date:      date("2024-01-01"),
				EndDate:   datePtr("2024-06-01"),
				Status:    StatusCurrent,
				Submitted: Submitted{Status: true},
				Accepted:  false,
				Today:     today,
			},
			want: FormErrors{FieldStatus: MsgPastEndDate},
		},
		{
			name: "suspension requires reason",
			in: ValidationInput{
				Date:         date("2024-01-01"),
				Status:       StatusSuspended,
				StatusReason: "  ",
				Submitted:    Submitted{Status: true, StatusReason: true},
				Accepted:     true,
				Today:        today,
			},
			want: FormErrors{FieldStatusReason: MsgReasonRequired},
		},
		{
			name: "suspension with reason code",
			in: ValidationInput{
				Date:         date("2024-01-01"),
				Status:       StatusSuspended,
				StatusReason: string(ReasonNotVerified),
				Submitted:    Submitted{Status: true, StatusReason: true},
				Today:        today,
			},
			want: FormErrors{},
		},
		{
			name: "new commission without start date",
			in: ValidationInput{
				Status:    StatusCurrent,
				Submitted: Submitted{EndDate: true},
				Accepted:  true,
				Today:     today,
			},
			want: FormErrors{FieldDate: MsgDateRequired},
		},
		{
			name: "unknown reason code",
			in: ValidationInput{
				CommissionID: "COMM-001",
				Date:         date("2024-01-01"),
				Status:       StatusSuspended,
				StatusReason: "holiday",
				Submitted:    Submitted{Status: true, StatusReason: true},
				Today:        today,
			},
			want: FormErrors{FieldStatusReason: MsgInvalidReason},
		},
		{
			name: "suspension reason not in form",
			in: ValidationInput{
				Date:      date("2024-01-01"),
				Status:    StatusSuspended,
				Submitted: Submitted{Status: true},
				Today:     today,
			},
			want: FormErrors{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Validate() = %v, want %v", got, tt.want)
			}
			for field, msg := range tt.want {
				if got[field] != msg {
					t.Errorf("error[%s] = %q, want %q", field, got[field], msg)
				}
			}
			if got.HasErrors() != (len(tt.want) > 0) {
				t.Errorf("HasErrors() = %v", got.HasErrors())
			}
		})
	}
}

func TestFormErrors_Error(t *testing.T) {
	errs := FormErrors{FieldStatus: MsgNotVerified, FieldDate: MsgOverlap}
	msg := errs.Error()
	if !strings.HasPrefix(msg, "validation failed: date:") {
		t.Errorf("expected fields in sorted order, got %q", msg)
	}
	if !strings.Contains(msg, "status: "+MsgNotVerified) {
		t.Errorf("expected status message, got %q", msg)
	}
}
