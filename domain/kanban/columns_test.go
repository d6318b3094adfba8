package kanban_test

import (
	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/kanban"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type sticker struct {
	name   string
	status *domain.Status
}

func (s sticker) CurrentStatus() *domain.Status {
	return s.status
}

var _ = Describe("Columns", func() {
	const (
		open     types.ID = 1
		inReview types.ID = 2
		closed   types.ID = 3
		archived types.ID = 4
	)

	columns := []kanban.Column{
		{Name: "Todo", StatusIDs: []types.ID{open}, Default: true},
		{Name: "Doing", StatusIDs: []types.ID{inReview}},
		{Name: "Done", StatusIDs: []types.ID{closed}},
	}
	at := func(name string, id types.ID) sticker {
		return sticker{name: name, status: &domain.Status{ID: id}}
	}
	namesOf := func(items []sticker) []string {
		r := []string{}
		for _, it := range items {
			r = append(r, it.name)
		}
		return r
	}

	Describe("ValidateColumns", func() {
		It("should accept a layout with exactly one default column", func() {
			Expect(kanban.ValidateColumns(columns)).To(BeNil())
		})

		It("should reject broken layouts", func() {
			Expect(kanban.ValidateColumns([]kanban.Column{{Name: "A"}, {Name: "B"}})).
				To(Equal(bizerror.ErrMissingDefaultColumn))
			Expect(kanban.ValidateColumns([]kanban.Column{{Name: "A", Default: true}, {Name: "B", Default: true}})).
				To(Equal(bizerror.ErrMultipleDefaultColumns))
			Expect(kanban.ValidateColumns([]kanban.Column{{Name: "A", Default: true, StatusIDs: []types.ID{1}},
				{Name: "B", StatusIDs: []types.ID{1}}})).To(Equal(bizerror.ErrStatusOverlap))
			Expect(kanban.ValidateColumns([]kanban.Column{{Name: "A", Default: true}, {Name: "A"}})).
				To(Equal(bizerror.ErrDuplicateColumnName))
		})
	})

	Describe("GroupByColumn", func() {
		It("should place every item into exactly one column keeping input order", func() {
			items := []sticker{at("a", closed), at("b", open), {name: "c"}, at("d", inReview), at("e", archived), at("f", closed)}
			grouped := kanban.GroupByColumn(items, columns)

			Expect(namesOf(grouped["Todo"])).To(Equal([]string{"b", "c", "e"}))
			Expect(namesOf(grouped["Doing"])).To(Equal([]string{"d"}))
			Expect(namesOf(grouped["Done"])).To(Equal([]string{"a", "f"}))

			total := 0
			for _, list := range grouped {
				total += len(list)
			}
			Expect(total).To(Equal(len(items)))
		})

		It("should present empty columns", func() {
			grouped := kanban.GroupByColumn([]sticker{}, columns)
			Expect(grouped).To(HaveLen(3))
			Expect(grouped["Done"]).ToNot(BeNil())
			Expect(grouped["Done"]).To(BeEmpty())
		})

		It("should prefer the first declared column for a status", func() {
			overlapping := []kanban.Column{
				{Name: "First", StatusIDs: []types.ID{open}},
				{Name: "Second", StatusIDs: []types.ID{open}, Default: true},
			}
			grouped := kanban.GroupByColumn([]sticker{at("a", open)}, overlapping)
			Expect(namesOf(grouped["First"])).To(Equal([]string{"a"}))
			Expect(grouped["Second"]).To(BeEmpty())
		})

		It("should group unmatched items under an empty name without default column", func() {
			grouped := kanban.GroupByColumn([]sticker{at("a", archived)}, []kanban.Column{{Name: "Done", StatusIDs: []types.ID{closed}}})
			Expect(namesOf(grouped[""])).To(Equal([]string{"a"}))
		})
	})
})
