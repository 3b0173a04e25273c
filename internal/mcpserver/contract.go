package mcpserver

// DocumentFormatContract describes the canonical tree document that every
// VisProject host reads and writes.
const DocumentFormatContract = `# VisProject Tree Document Contract

The project tree lives in a single JSON document (` + "`" + `data.json` + "`" + `). Hosts
share it, so any edit MUST keep this structure.

## Node

` + "```" + `json
{
  "id": "root",              // REQUIRED, unique across the tree; the root is "root"
  "name": "Root",            // REQUIRED, display name
  "done": false,             // finished flag
  "done_time": 1700000000,   // unix seconds; present only while done is true
  "lastreview": 0,           // unix seconds of the last review, 0 = never
  "review_state": false,     // enrolled in spaced review
  "period": 7,               // review period in days; present only while enrolled
  "color": "#4F81BD",        // OPTIONAL #RRGGBB override
  "pos": [150, 0],           // derived layout cache, always recomputed
  "children": []             // ordered list of child nodes, never null
}
` + "```" + `

## Rules

1. **The root is the document.** Its id is ` + "`" + `root` + "`" + ` and it cannot be deleted.
2. **Ids are unique.** New nodes get a random UUID; never reuse an id.
3. **Only leaves can be deleted.** Delete children first.
4. **Sibling order matters.** Layout and traversal follow the order of ` + "`" + `children` + "`" + `.
5. **pos is not authoritative.** Positions are recomputed from structure on load.
6. **Records live elsewhere.** Time records are stored in the SQLite database
   keyed by node id. Deleting a node leaves its records in place, invisible to totals.
7. **Review score** is ` + "`" + `(now - lastreview) / (period * 86400)` + "`" + `; higher is more overdue.

## Records

A record is ` + "`" + `{node_id, date, start, end}` + "`" + ` with ` + "`" + `start <= end` + "`" + ` in unix seconds
and ` + "`" + `date` + "`" + ` as ` + "`" + `YYYY-MM-DD` + "`" + `. Learn and review records are kept in separate tables.
Use the ` + "`" + `log_record` + "`" + ` tool rather than editing the database.

## Example

` + "```" + `json
{
  "id": "root",
  "name": "Root",
  "done": false,
  "lastreview": 0,
  "review_state": false,
  "pos": [150, 0],
  "children": [
    {"id": "3f0c...", "name": "Algebra", "done": false, "lastreview": 0,
     "review_state": true, "period": 3, "pos": [0, 120], "children": []},
    {"id": "9a1d...", "name": "Geometry", "done": true, "done_time": 1700000000,
     "lastreview": 0, "review_state": false, "pos": [300, 120], "children": []}
  ]
}
` + "```" + `
`
