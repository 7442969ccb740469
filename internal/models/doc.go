// Package models defines the core domain models for Dangi.
//
// # Models
//
//   - Project: a shared ledger (trip, building, gathering, household)
//   - Participant: a person inside a project, optionally linked to a User
//   - Expense / ExpenseShare: a payment and how its cost is divided
//   - Settlement: money paid directly between two participants
//   - ChargeRule / ChargePayment: monthly dues of building projects
//   - User / UserPreferences: accounts and their explicit settings
//
// # Design Principles
//
//  1. Money is int64 in the smallest currency unit; Currency is for display only
//  2. Relationships use ID strings, never pointers
//  3. Balances are derived on read and never stored
//  4. Participants are soft-removed so historical expenses stay consistent
package models
