package predict_test

import (
	"bytes"
	"context"
	"errors"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/aksharpad/internal/predict"
)

type stubPredictor struct {
	resp *predict.Response
	err  error
	seen []string
}

func (s *stubPredictor) Predict(ctx context.Context, dataURL string) (*predict.Response, error) {
	s.seen = append(s.seen, dataURL)
	return s.resp, s.err
}

var _ = Describe("Dispatcher", func() {
	var d *predict.Dispatcher

	BeforeEach(func() {
		d = &predict.Dispatcher{}
	})

	It("numbers submissions monotonically", func() {
		a, _ := d.Next(context.Background())
		b, _ := d.Next(context.Background())
		Expect(b).To(BeNumerically(">", a))
		Expect(d.Seq()).To(Equal(b))
	})

	It("accepts the newest outcome exactly once", func() {
		seq, _ := d.Next(context.Background())
		Expect(d.Pending()).To(BeTrue())
		Expect(d.Accept(seq)).To(BeTrue())
		Expect(d.Accept(seq)).To(BeFalse())
		Expect(d.Pending()).To(BeFalse())
	})

	It("discards a stale outcome arriving after a resubmission", func() {
		first, firstCtx := d.Next(context.Background())
		second, _ := d.Next(context.Background())

		Expect(firstCtx.Err()).To(MatchError(context.Canceled))
		Expect(d.Accept(first)).To(BeFalse())
		Expect(d.Accept(second)).To(BeTrue())
	})

	It("discards an in-flight outcome after a clear", func() {
		seq, ctx := d.Next(context.Background())
		d.Invalidate()

		Expect(ctx.Err()).To(MatchError(context.Canceled))
		Expect(d.Accept(seq)).To(BeFalse())
		Expect(d.Pending()).To(BeFalse())
	})

	It("releases the context of an accepted submission", func() {
		seq, ctx := d.Next(context.Background())
		Expect(d.Accept(seq)).To(BeTrue())
		Expect(ctx.Err()).To(HaveOccurred())
	})
})

var _ = Describe("Submit and Resolve", func() {
	var (
		buf    *bytes.Buffer
		logger *log.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		logger = log.New(buf)
		logger.SetLevel(log.DebugLevel)
	})

	It("passes the data URL through and tags the outcome", func() {
		p := &stubPredictor{resp: &predict.Response{Prediction: "ग", Confidence: "0.7"}}
		o := predict.Submit(context.Background(), p, 42, "data:image/png;base64,AAAA")

		Expect(p.seen).To(ConsistOf("data:image/png;base64,AAAA"))
		Expect(o.Seq).To(Equal(uint64(42)))

		text, ok := predict.Resolve(o, logger)
		Expect(ok).To(BeTrue())
		Expect(text).To(Equal("Result: ग (Confidence: 0.7)"))
	})

	It("renders a server error", func() {
		o := predict.Outcome{Seq: 1, Response: &predict.Response{Error: "model unavailable"}}
		text, ok := predict.Resolve(o, logger)
		Expect(ok).To(BeTrue())
		Expect(text).To(Equal("Error: model unavailable"))
	})

	It("logs transport failures without producing text", func() {
		o := predict.Outcome{Seq: 3, Err: errors.New("connection refused")}
		text, ok := predict.Resolve(o, logger)
		Expect(ok).To(BeFalse())
		Expect(text).To(BeEmpty())
		Expect(buf.String()).To(ContainSubstring("prediction failed"))
		Expect(buf.String()).To(ContainSubstring("connection refused"))
	})

	It("logs malformed replies without producing text", func() {
		o := predict.Outcome{Seq: 4, Response: &predict.Response{Confidence: "0.3"}}
		_, ok := predict.Resolve(o, logger)
		Expect(ok).To(BeFalse())
		Expect(buf.String()).To(ContainSubstring("unusable prediction reply"))
	})

	It("treats cancellation as a quiet supersede", func() {
		o := predict.Outcome{Seq: 5, Err: context.Canceled}
		_, ok := predict.Resolve(o, logger)
		Expect(ok).To(BeFalse())
		Expect(buf.String()).To(ContainSubstring("superseded"))
	})
})
