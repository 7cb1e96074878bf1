package pathfinding

// queueItem is one frontier entry. Priority is captured at enqueue time;
// nodes are never re-prioritized once discovered.
type queueItem struct {
	node     *Node
	priority float64
	seq      uint64
	index    int
}

// frontier implements heap.Interface ordered by priority. Equal priorities
// prefer the lower g, then discovery order.
type frontier []*queueItem

func (pq frontier) Len() int { return len(pq) }

func (pq frontier) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	if gi, gj := pq[i].node.g, pq[j].node.g; gi != gj {
		return gi < gj
	}
	return pq[i].seq < pq[j].seq
}

func (pq frontier) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *frontier) Push(x any) {
	n := len(*pq)
	item := x.(*queueItem)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *frontier) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}
