// Package dataprocessing turns the raw statistical exports into year-aligned
// indicator series and theme tables.
//
// # Architecture
//
// The package has four pieces, used in this order by a run:
//
// 1. Loader: reads CSV or Excel files into a Table with normalized column names
// 2. Column helpers: ExtractYear (year from a file name) and SelectColumn (keyword search)
// 3. Extractor: one parameterized procedure for every IndicatorSpec in the catalog
// 4. Assembler: outer-joins indicator tables on year into a theme
//
// # Usage
//
//	extractor := dataprocessing.NewExtractor(paths.DataDir, nil, logger)
//	income := extractor.Extract(ctx, spec)
//	if !income.OK() {
//	    logger.Warn("median income unavailable", "reason", income.Reason)
//	}
//
//	theme := dataprocessing.AssembleTheme("economic_squeeze", income.Table, childcare.Table)
//
// # Failure handling
//
// Extraction is fail-soft. An unreadable file, an unresolvable column or a
// non-numeric cell never aborts a run; the ExtractionResult carries a status
// (ok, no_rows, unavailable) and a reason instead.
//
// # Column selection
//
// SelectColumn returns the first column in declaration order whose name
// contains any keyword. A sheet with both "fiscal_year" and "year" resolves
// the year keyword to whichever comes first.
package dataprocessing
