package predict_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/aksharpad/internal/predict"
)

func decode(raw string) *predict.Response {
	var r predict.Response
	ExpectWithOffset(1, json.Unmarshal([]byte(raw), &r)).To(Succeed())
	return &r
}

var _ = Describe("Response", func() {
	DescribeTable("rendering",
		func(raw, want string) {
			text, err := decode(raw).Text()
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(want))
		},
		Entry("numeric confidence", `{"prediction":"अ","confidence":0.92}`, "Result: अ (Confidence: 0.92)"),
		Entry("string confidence", `{"prediction":"क","confidence":"92.00%"}`, "Result: क (Confidence: 92.00%)"),
		Entry("exponent kept verbatim", `{"prediction":"ख","confidence":1e-3}`, "Result: ख (Confidence: 1e-3)"),
		Entry("conjunct label", `{"prediction":"क्ष","confidence":"51.20%"}`, "Result: क्ष (Confidence: 51.20%)"),
		Entry("error field", `{"error":"model unavailable"}`, "Error: model unavailable"),
		Entry("error wins over prediction", `{"prediction":"क","confidence":1,"error":"stale model"}`, "Error: stale model"),
	)

	DescribeTable("malformed replies",
		func(raw string) {
			_, err := decode(raw).Text()
			Expect(err).To(MatchError(predict.ErrMalformed))
		},
		Entry("empty object", `{}`),
		Entry("missing confidence", `{"prediction":"क"}`),
		Entry("null confidence", `{"prediction":"क","confidence":null}`),
		Entry("missing prediction", `{"confidence":0.4}`),
		Entry("null body", `null`),
	)

	It("rejects a non-numeric, non-string confidence", func() {
		var r predict.Response
		Expect(json.Unmarshal([]byte(`{"prediction":"क","confidence":true}`), &r)).NotTo(Succeed())
	})

	It("treats a nil response as malformed", func() {
		var r *predict.Response
		_, err := r.Text()
		Expect(err).To(MatchError(predict.ErrMalformed))
	})

	It("decodes top candidates", func() {
		r := decode(`{"prediction":"क","confidence":"90.00%","top":[{"label":"क","confidence":"90.00%"},{"label":"ख","confidence":"5.00%"}]}`)
		Expect(r.Top).To(HaveLen(2))
		Expect(r.Top[1].Label).To(Equal("ख"))
		Expect(r.Top[1].Confidence.String()).To(Equal("5.00%"))
	})

	It("marshals numeric and textual confidences faithfully", func() {
		out, err := json.Marshal(predict.Response{Prediction: "क", Confidence: "0.92"})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"prediction":"क","confidence":0.92}`))

		out, err = json.Marshal(predict.Response{Prediction: "क", Confidence: "92.00%"})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"prediction":"क","confidence":"92.00%"}`))

		out, err = json.Marshal(predict.Response{Error: "No image received"})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"error":"No image received"}`))
	})

	It("exposes the base result text", func() {
		Expect(predict.BaseText).To(Equal("Result: "))
	})
})
