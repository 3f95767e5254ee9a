package scylla

import (
	"strings"
	"testing"

	"onboarding-service/internal/models"
)

// The repositories build a fresh query per call from these statement strings,
// so the strings themselves must agree with the bind and scan helpers.
func TestStatementBindArity(t *testing.T) {
	stmts := buildStatements()
	record := &models.CustomerRecord{}

	columns := len(strings.Split(customerColumns, ","))
	if got := len(customerValues(record)); got != columns {
		t.Errorf("customerValues has %d entries, customerColumns has %d", got, columns)
	}
	if got := len(customerScanDest(record)); got != columns {
		t.Errorf("customerScanDest has %d entries, customerColumns has %d", got, columns)
	}

	tests := []struct {
		name  string
		stmt  string
		binds int
	}{
		{name: "InsertCustomer", stmt: stmts.InsertCustomer, binds: columns},
		{name: "GetCustomerByID", stmt: stmts.GetCustomerByID, binds: 1},
		{name: "GetAllCustomers", stmt: stmts.GetAllCustomers, binds: 0},
		{name: "UpdateCustomerStatus", stmt: stmts.UpdateCustomerStatus, binds: 3},
		{name: "DeleteCustomer", stmt: stmts.DeleteCustomer, binds: 1},
		{name: "GetCustomerIDsByBusiness", stmt: stmts.GetCustomerIDsByBusiness, binds: 1},
		{name: "InsertAdminUser", stmt: stmts.InsertAdminUser, binds: 6},
		{name: "GetAdminUserByEmail", stmt: stmts.GetAdminUserByEmail, binds: 1},
		{name: "UpdateAdminLastLogin", stmt: stmts.UpdateAdminLastLogin, binds: 2},
		{name: "UpdateAdminPassword", stmt: stmts.UpdateAdminPassword, binds: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Count(tt.stmt, "?"); got != tt.binds {
				t.Errorf("statement has %d placeholders, want %d:\n%s", got, tt.binds, tt.stmt)
			}
		})
	}
}

func TestStatusUpdateIsConditional(t *testing.T) {
	stmts := buildStatements()
	if !strings.Contains(stmts.UpdateCustomerStatus, "IF EXISTS") {
		t.Error("status update must be conditional so it cannot resurrect a deleted row")
	}
}
