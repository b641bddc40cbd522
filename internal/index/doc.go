// Package index builds and queries the nickname index: a mapping from each
// speaker nickname to the set of log files containing at least one line
// attributed to that nickname.
//
// Indices are values. Every file yields a partial index, every directory folds
// the partial indices of its entries with Merge, and the root's result is the
// full index. Merge is commutative and associative with the empty index as
// identity, so the order in which a crawl visits entries, sequentially or in
// parallel, never changes the result.
//
// Usage:
//
//	c := index.NewCrawler(index.WithWorkers(4))
//	idx, err := c.Crawl(ctx, "logs")
//	if err != nil {
//	    return err
//	}
//	files, err := index.Resolve(idx, []string{"alice", "bob"})
package index
