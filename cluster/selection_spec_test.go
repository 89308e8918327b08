package cluster_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/nereusdb/ndbc/cluster"
	"github.com/nereusdb/ndbc/topology"
)

var _ = Describe("Selection", func() {
	var primary, secA, secB *topology.Node

	BeforeEach(func() {
		primary = &topology.Node{Host: "p", Primary: true, Measured: true, PingMS: 2}
		secA = &topology.Node{Host: "a", Secondary: true, Measured: true, PingMS: 3}
		secB = &topology.Node{Host: "b", Secondary: true, Measured: true, PingMS: 3}
	})

	Describe("primary pinning", func() {
		It("always routes writes to the primary", func() {
			nodes := []*topology.Node{secA, secB, primary}
			for i := 0; i < 10; i++ {
				got, err := cluster.Select(nodes, cluster.ModeReplicaSet, 15, cluster.SelectionCriteria{ForWrite: true})
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(primary))
			}
		})

		It("errors when no primary is reachable", func() {
			nodes := []*topology.Node{secA, secB}
			_, err := cluster.Select(nodes, cluster.ModeReplicaSet, 15, cluster.SelectionCriteria{ForWrite: true})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("fairness among equally-near secondaries", func() {
		It("picks every tied candidate over enough draws", func() {
			nodes := []*topology.Node{secA, secB}
			seen := map[string]bool{}
			for i := 0; i < 200; i++ {
				got, err := cluster.Select(nodes, cluster.ModeReplicaSet, 15, cluster.SelectionCriteria{Pref: cluster.ReadSecondary})
				Expect(err).NotTo(HaveOccurred())
				seen[got.Host] = true
			}
			Expect(seen).To(HaveLen(2), "both equally-near secondaries should be selectable")
		})
	})

	Describe("direct mode", func() {
		It("ignores read preference and returns the sole node", func() {
			nodes := []*topology.Node{primary}
			got, err := cluster.Select(nodes, cluster.ModeDirect, 15, cluster.SelectionCriteria{Pref: cluster.ReadSecondary})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(primary))
		})
	})
})
