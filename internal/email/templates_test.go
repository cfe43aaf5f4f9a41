package email

import (
	"strings"
	"testing"
)

func TestRenderEmailTemplates(t *testing.T) {
	cases := []struct {
		name     string
		template string
		data     any
		want     []string
	}{
		{
			name:     "lead assigned",
			template: "lead_assigned.html",
			data: leadAssignedEmailData{
				baseEmailData: baseEmailData{Title: "New lead", Heading: "New lead assigned"},
				EmployeeName:  "Priya Nair",
				LeadName:      "Asha Verma",
			},
			want: []string{"Priya Nair", "Asha Verma", "New lead assigned"},
		},
		{
			name:     "registration created",
			template: "registration_created.html",
			data: registrationCreatedEmailData{
				baseEmailData: baseEmailData{Title: "Welcome", Heading: "Registration confirmed"},
				StudentName:   "Asha Verma",
				PublicID:      "STU-2025-1042",
			},
			want: []string{"Asha Verma", "STU-2025-1042"},
		},
		{
			name:     "workflow transitioned",
			template: "workflow_transitioned.html",
			data: workflowTransitionedEmailData{
				baseEmailData: baseEmailData{Title: "Update", Heading: "Next stage"},
				StudentName:   "Asha Verma",
				PublicID:      "STU-2025-1042",
				Stage:         "admission",
			},
			want: []string{"STU-2025-1042", "admission"},
		},
		{
			name:     "loan disbursed",
			template: "loan_disbursed.html",
			data: loanDisbursedEmailData{
				baseEmailData:   baseEmailData{Title: "Loan", Heading: "Loan disbursed"},
				StudentName:     "Asha Verma",
				PublicID:        "STU-2025-1042",
				BankName:        "HDFC Bank",
				AmountFormatted: formatCurrencyINR(1500000),
			},
			want: []string{"HDFC Bank", "₹1500000"},
		},
		{
			name:     "registration cancelled",
			template: "registration_cancelled.html",
			data: registrationCancelledEmailData{
				baseEmailData: baseEmailData{Title: "Cancelled", Heading: "Process cancelled"},
				StudentName:   "Asha Verma",
				PublicID:      "STU-2025-1042",
				Reason:        "visa refused",
			},
			want: []string{"visa refused", "STU-2025-1042"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			html, err := renderEmailTemplate(tc.template, tc.data)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, fragment := range tc.want {
				if !strings.Contains(html, fragment) {
					t.Errorf("rendered html missing %q", fragment)
				}
			}
			if !strings.Contains(html, "EduCRM") {
				t.Error("rendered html missing brand header")
			}
		})
	}
}
