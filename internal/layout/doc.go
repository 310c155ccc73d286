// Package layout resolves paths inside a PHOENIX-style study data root.
//
// The tree splits into PROTECTED (raw recordings, identifiable artifacts) and
// GENERAL (de-identified outputs) halves; every ledger, transcript folder, and
// QC table location is derived from the study name, participant ID, and
// interview type. Centralizing the naming here keeps the accounting passes
// free of string assembly.
package layout
