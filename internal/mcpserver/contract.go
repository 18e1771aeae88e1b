package mcpserver

// TableFormatContract describes the reading-log table format that LLM
// consumers should follow when editing documents by hand.
const TableFormatContract = `# Booker Table Format Contract

A reading log is a pipe-delimited Markdown table inside a document of the vault.

## Structure

` + "```" + `markdown
| ISBN | Title | Authors | Pages | Date added | Date finished | Rating | Review |
|------|-------|---------|-------|------------|---------------|--------|--------|
| 9780441013593 | Dune | Frank Herbert | 412 | 2025-01-02 |  | 4.5 | Great |
|      |       |         |       |            |               |        |        |
` + "```" + `

## Rules

1. **Line 0 is the header**, line 1 is the separator. Every later line is a data row.
2. **Column order is fixed:** ISBN, title, authors, page count, date added,
   date finished, then optionally rating (7+ columns) and review (8 columns).
3. **Authors** are joined with ` + "`" + `, ` + "`" + `.
4. **Empty cells** are written as ` + "`" + `|  |` + "`" + `; a row whose cells are all blank is empty.
5. **At least one empty row** must exist: ` + "`" + `insert_book` + "`" + ` fills the first one and
   appends a fresh empty row, so the table always keeps one free slot.
6. **Blocks** are runs of non-blank lines separated by a blank line. The block holding
   the ISBN sits directly below the table and contains only 10 to 13 digits.
7. **Do not** put a textual label (e.g. ` + "`" + `ISBN 978...` + "`" + `) in the ISBN block; it is rejected.

## Templates

- ` + "`" + `basic` + "`" + `: 6 columns, ISBN to date finished.
- ` + "`" + `advanced` + "`" + `: 8 columns, adds rating and review.

Create one with ` + "`" + `create_table` + "`" + ` in an empty block.
`
