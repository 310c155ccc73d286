// Command tally runs the interview accounting pipeline over a PHOENIX data
// root and inspects its ledgers and run journal.
package main
