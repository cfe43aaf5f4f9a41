package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
	}{
		{"Counsellor", RoleCounsellor},
		{"counselor", RoleCounsellor},
		{"Work From Home", RoleWFH},
		{"wfh", RoleWFH},
		{"Admissions", RoleAdmission},
		{"loan", RoleLoanOfficer},
		{"Loan Officer", RoleLoanOfficer},
		{"manager", RoleManager},
		{"Super Admin", RoleSuperAdmin},
		{"superadmin", RoleSuperAdmin},
		{"  intern  ", Role("intern")},
	}

	for _, tc := range cases {
		if got := NormalizeRole(tc.raw); got != tc.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCanOwnFollowsDepartment(t *testing.T) {
	cases := []struct {
		role Role
		dept Department
		want bool
	}{
		{RoleCounsellor, DepartmentCounsellor, true},
		{RoleWFH, DepartmentCounsellor, true},
		{RoleCounsellor, DepartmentAdmission, false},
		{RoleAdmission, DepartmentAdmission, true},
		{RoleAdmission, DepartmentLoan, false},
		{RoleLoanOfficer, DepartmentLoan, true},
		{RoleManager, DepartmentCounsellor, true},
		{RoleManager, DepartmentLoan, true},
		{RoleSuperAdmin, DepartmentAdmission, true},
	}

	for _, tc := range cases {
		caps := CapabilitiesForRole(tc.role)
		if got := caps.CanOwn(tc.dept); got != tc.want {
			t.Errorf("%s.CanOwn(%s) = %v, want %v", tc.role, tc.dept, got, tc.want)
		}
	}
}

func TestConvertAndPurgeCapabilities(t *testing.T) {
	if !CapabilitiesForRole(RoleCounsellor).CanConvertLeads() {
		t.Error("counsellor should convert leads")
	}
	if !CapabilitiesForRole(RoleWFH).CanConvertLeads() {
		t.Error("wfh counsellor should convert leads")
	}
	if CapabilitiesForRole(RoleAdmission).CanConvertLeads() {
		t.Error("admission should not convert leads")
	}
	if CapabilitiesForRole(RoleManager).CanPurge() {
		t.Error("manager should not purge")
	}
	if !CapabilitiesForRole(RoleSuperAdmin).CanPurge() {
		t.Error("super admin should purge")
	}
	if !CapabilitiesForRole(RoleManager).CanManageEmployees() {
		t.Error("manager should manage employees")
	}
	if CapabilitiesForRole(RoleLoanOfficer).CanManageEmployees() {
		t.Error("loan officer should not manage employees")
	}
}

func TestNewActorResolvesDepartment(t *testing.T) {
	id := uuid.New()
	actor := NewActor(id, "Loan Officer")
	if actor.ID != id || actor.Role != RoleLoanOfficer || actor.Department != DepartmentLoan {
		t.Fatalf("actor = %+v", actor)
	}
	if !actor.Capabilities.CanOwn(DepartmentLoan) {
		t.Fatal("loan officer should own loan stage")
	}
}
