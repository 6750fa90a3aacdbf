package leaderboard

const pageSize = 10

// View is a fully ranked board snapshot, built once per request and paged
// locally. It round-trips through JSON for the interactive session store.
type View struct {
	Period    Period  `json:"period"`
	Scope     Scope   `json:"scope"`
	Entries   []Entry `json:"entries"`
	Requester *Entry  `json:"requester,omitempty"`
	Forced    bool    `json:"forced"`
}

func (v *View) forcedExtra() bool {
	return v.Forced && v.Requester != nil
}

// effectiveLen counts the pageable lines, including the requester's extra
// line when it was forced onto the first page.
func (v *View) effectiveLen() int {
	n := len(v.Entries)
	if v.forcedExtra() {
		n++
	}
	return n
}

func (v *View) PageCount() int {
	return (v.effectiveLen() + pageSize - 1) / pageSize
}

// ClampPage folds an arbitrary page index into the valid range.
func (v *View) ClampPage(i int) int {
	if last := v.PageCount() - 1; i > last {
		i = last
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Page returns one board page. When the requester ranked outside the first
// page but inside the top list, their line is inserted after the nine best
// entries, so page zero shows 9 best + requester and later pages continue
// from the tenth entry without dropping anyone.
func (v *View) Page(i int) []Entry {
	i = v.ClampPage(i)

	entries := v.Entries
	if v.forcedExtra() {
		at := pageSize - 1
		if len(entries) < at {
			at = len(entries)
		}
		eff := make([]Entry, 0, len(entries)+1)
		eff = append(eff, entries[:at]...)
		eff = append(eff, *v.Requester)
		eff = append(eff, entries[at:]...)
		entries = eff
	}

	lo := i * pageSize
	if lo >= len(entries) {
		return nil
	}
	hi := lo + pageSize
	if hi > len(entries) {
		hi = len(entries)
	}
	return entries[lo:hi]
}
