package permission_test

import (
	"encoding/json"

	"github.com/frahmantamala/planning-admin/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Payload", func() {
	DescribeTable("should classify stored JSON once",
		func(raw string, kind permission.Kind) {
			Expect(permission.Parse([]byte(raw)).Kind()).To(Equal(kind))
		},
		Entry("wildcard", `"*"`, permission.KindWildcard),
		Entry("legacy list", `["legislation.read"]`, permission.KindLegacyList),
		Entry("empty list", `[]`, permission.KindLegacyList),
		Entry("matrix", `{"legislation":{"view":true}}`, permission.KindMatrix),
		Entry("number", `7`, permission.KindUnrecognized),
		Entry("other string", `"admin"`, permission.KindUnrecognized),
		Entry("garbage", `{{`, permission.KindUnrecognized),
	)

	It("should scan bytes and strings from a JSON column", func() {
		var p permission.Payload
		Expect(p.Scan([]byte(`["mapping.read"]`))).To(Succeed())
		Expect(p.Matrix().Allows(permission.ToolMappingZoning, permission.ActionView)).To(BeTrue())

		Expect(p.Scan(`"*"`)).To(Succeed())
		Expect(p.Matrix()).To(Equal(permission.Full()))

		Expect(p.Scan(nil)).To(Succeed())
		Expect(p.Kind()).To(Equal(permission.KindUnrecognized))
	})

	It("should reject non-text column values", func() {
		var p permission.Payload
		Expect(p.Scan(int64(5))).NotTo(Succeed())
	})

	It("should store the original JSON verbatim", func() {
		raw := `{"legislation": {"view": true, "edit": "yes"}}`
		v, err := permission.Parse([]byte(raw)).Value()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(raw))
	})

	It("should store built payloads as JSON", func() {
		v, err := permission.Wildcard().Value()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(`"*"`))

		v, err = permission.LegacyList("data.read", "data.edit").Value()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(`["data.read","data.edit"]`))

		v, err = permission.Payload{}.Value()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(`[]`))
	})

	It("should round trip a normalized matrix payload", func() {
		m := permission.Normalize([]string{"accounting.edit", "approvals.read"})
		data, err := json.Marshal(permission.MatrixPayload(m))
		Expect(err).NotTo(HaveOccurred())

		Expect(permission.Parse(data).Matrix()).To(Equal(m))
	})

	It("should keep a payload when decoding a request body", func() {
		var body struct {
			Permissions permission.Payload `json:"permissions"`
		}
		Expect(json.Unmarshal([]byte(`{"permissions":{"accounting":true}}`), &body)).To(Succeed())
		Expect(body.Permissions.Kind()).To(Equal(permission.KindMatrix))
		Expect(body.Permissions.Matrix().Allows(permission.ToolAccounting, permission.ActionEdit)).To(BeTrue())
	})
})
