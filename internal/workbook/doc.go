// Package workbook reads .xlsx spreadsheets for the read-only data API.
//
// Sheets are converted to header-keyed rows with excelize. Failures are
// classified as ErrFileNotFound, ErrSheetNotFound or ErrCorruptWorkbook.
package workbook
