package predict_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/aksharpad/internal/predict"
	"github.com/san-kum/aksharpad/internal/surface"
)

type capture struct {
	mu          sync.Mutex
	count       int
	method      string
	contentType string
	body        predict.Request
}

func newClassifier(c *capture, status int, reply string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.count++
		c.method = r.Method
		c.contentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &c.body)
		c.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
}

var _ = Describe("Client", func() {
	var (
		c   *capture
		srv *httptest.Server
	)

	AfterEach(func() {
		if srv != nil {
			srv.Close()
			srv = nil
		}
	})

	Context("with a blank canvas", func() {
		BeforeEach(func() {
			c = &capture{}
			srv = newClassifier(c, http.StatusOK, `{"prediction":"क","confidence":0.5}`)
		})

		It("issues exactly one well-formed POST", func() {
			s := surface.New(64, 64)
			url, err := s.DataURL()
			Expect(err).NotTo(HaveOccurred())

			client := predict.NewClient(srv.URL + "/predict")
			_, err = client.Predict(context.Background(), url)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.count).To(Equal(1))
			Expect(c.method).To(Equal(http.MethodPost))
			Expect(c.contentType).To(Equal("application/json"))
			Expect(c.body.Image).To(HavePrefix(surface.DataURLPrefix))

			img, err := surface.DecodeDataURL(c.body.Image)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(64))
		})
	})

	Context("with a successful reply", func() {
		BeforeEach(func() {
			c = &capture{}
			srv = newClassifier(c, http.StatusOK, `{"prediction":"अ","confidence":0.92}`)
		})

		It("renders label and confidence", func() {
			resp, err := predict.NewClient(srv.URL).PredictImage(context.Background(), surface.New(8, 8).Snapshot())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(http.StatusOK))

			text, err := resp.Text()
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Result: अ (Confidence: 0.92)"))
		})
	})

	Context("with a server-reported error", func() {
		BeforeEach(func() {
			c = &capture{}
			srv = newClassifier(c, http.StatusInternalServerError, `{"error":"Model not loaded"}`)
		})

		It("returns the reply so the error can be shown", func() {
			resp, err := predict.NewClient(srv.URL).Predict(context.Background(), "data:image/png;base64,")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(http.StatusInternalServerError))

			text, err := resp.Text()
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Error: Model not loaded"))
		})
	})

	Context("with a non-JSON reply", func() {
		BeforeEach(func() {
			c = &capture{}
			srv = newClassifier(c, http.StatusBadGateway, "<html>bad gateway</html>")
		})

		It("reports a malformed reply with its status", func() {
			_, err := predict.NewClient(srv.URL).Predict(context.Background(), "x")
			Expect(err).To(MatchError(predict.ErrMalformed))

			var se *predict.StatusError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Code).To(Equal(http.StatusBadGateway))
			Expect(se.Body).To(ContainSubstring("bad gateway"))
		})
	})

	Context("when the classifier is unreachable", func() {
		It("returns a transport error", func() {
			dead := httptest.NewServer(http.NotFoundHandler())
			url := dead.URL
			dead.Close()

			_, err := predict.NewClient(url).Predict(context.Background(), "x")
			Expect(err).To(MatchError(predict.ErrTransport))
		})
	})

	Context("with a slow classifier", func() {
		var release chan struct{}

		BeforeEach(func() {
			release = make(chan struct{})
			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
		})

		AfterEach(func() {
			close(release)
		})

		It("honours a configured timeout", func() {
			client := predict.NewClient(srv.URL, predict.WithTimeout(50*time.Millisecond))
			_, err := client.Predict(context.Background(), "x")
			Expect(err).To(MatchError(predict.ErrTransport))
			Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
		})

		It("stops when its context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				_, err := predict.NewClient(srv.URL).Predict(ctx, "x")
				done <- err
			}()
			cancel()

			var err error
			Eventually(done).Should(Receive(&err))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	It("keeps the endpoint it was built with", func() {
		client := predict.NewClient("http://example.test/predict", predict.WithHTTPClient(nil))
		Expect(client.Endpoint()).To(Equal("http://example.test/predict"))
		Expect(strings.HasSuffix(client.Endpoint(), "/predict")).To(BeTrue())
	})
})
