package decompose

import "github.com/blocksolve/blocksolve/bserr"

// maximumBipartiteMatching computes a maximum-cardinality matching between
// rows {0,...,n-1} and columns {0,...,n-1} of a binarized n x n Jacobian,
// using Kuhn's augmenting-path algorithm. Column candidates are always
// tried in ascending index order so that, for a given binarized pattern,
// the returned matching is deterministic regardless of call history.
//
// No library in the example pack implements general bipartite
// maximum-cardinality matching (see DESIGN.md), so this is hand-rolled.
//
// It returns matchCol, where matchCol[i] is the column matched to row i,
// or -1 if row i is unmatched. If the matching is not perfect (some row or
// column is unmatched), a StructurallySingular error is also returned,
// naming the unmatched rows and columns.
func maximumBipartiteMatching(bin matrixLike, n int) ([]int, error) {
	matchCol := make([]int, n) // row -> column, -1 if unmatched
	matchRow := make([]int, n) // column -> row, -1 if unmatched
	for i := range matchCol {
		matchCol[i] = -1
		matchRow[i] = -1
	}

	var tryKuhn func(row int, visited []bool) bool
	tryKuhn = func(row int, visited []bool) bool {
		for col := 0; col < n; col++ {
			if !bin.Present(row, col) || visited[col] {
				continue
			}
			visited[col] = true
			if matchRow[col] == -1 || tryKuhn(matchRow[col], visited) {
				matchRow[col] = row
				matchCol[row] = col
				return true
			}
		}
		return false
	}

	for row := 0; row < n; row++ {
		visited := make([]bool, n)
		tryKuhn(row, visited)
	}

	var unmatchedRows, unmatchedCols []int
	for i := 0; i < n; i++ {
		if matchCol[i] == -1 {
			unmatchedRows = append(unmatchedRows, i)
		}
		if matchRow[i] == -1 {
			unmatchedCols = append(unmatchedCols, i)
		}
	}
	if len(unmatchedRows) > 0 || len(unmatchedCols) > 0 {
		return matchCol, bserr.New(bserr.StructurallySingular,
			"decompose: no perfect matching; unmatched equations %v, unmatched unknowns %v",
			unmatchedRows, unmatchedCols)
	}
	return matchCol, nil
}

// matrixLike is the minimal surface maximumBipartiteMatching and the SCC
// builder need from a binarized Jacobian, so tests can exercise them
// against plain in-memory patterns without constructing a mat.Dense.
type matrixLike interface {
	Present(i, j int) bool
}
