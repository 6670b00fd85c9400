package cpu

import "fmt"

// Page is one mapped memory region, adapted from go/models/cpu/page.go.
type Page struct {
	Addr, Size uint64
	Prot       int
	Data       []byte
	Desc       string
}

func (p *Page) Contains(addr uint64) bool {
	return addr >= p.Addr && addr < p.Addr+p.Size
}

func (p *Page) String() string {
	prots := []int{ProtRead, ProtWrite, ProtExec}
	chars := []string{"r", "w", "x"}
	prot := ""
	for i, bit := range prots {
		if p.Prot&bit != 0 {
			prot += chars[i]
		} else {
			prot += "-"
		}
	}
	desc := fmt.Sprintf("%#x-%#x %s", p.Addr, p.Addr+p.Size, prot)
	if p.Desc != "" {
		desc += fmt.Sprintf(" [%s]", p.Desc)
	}
	return desc
}

// Pages is a sorted-by-address page list, adapted from
// go/models/cpu/memsim.go's Pages type.
type Pages []*Page

func (p Pages) Len() int           { return len(p) }
func (p Pages) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Pages) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Pages) find(addr uint64) *Page {
	for _, pg := range p {
		if pg.Contains(addr) {
			return pg
		}
	}
	return nil
}
