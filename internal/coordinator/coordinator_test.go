package coordinator

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/asctl/internal/api"
	"github.com/imamik/asctl/internal/messages"
	"github.com/imamik/asctl/internal/model"
	"github.com/imamik/asctl/internal/navigation"
	"github.com/imamik/asctl/internal/testing/fakeserver"
)

var _ = Describe("Coordinator", func() {
	var (
		srv *fakeserver.Server
		nav *navigation.Recorder
		c   *Coordinator
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		srv = fakeserver.New(GinkgoT())
		srv.SetAttachmentPoints(fakeserver.AttachmentPoint{IA: "AP1", HasVPN: true})
		srv.SetImages(fakeserver.Image{Name: "ubuntu", DisplayName: "Ubuntu 20.04"})
		srv.AddInstance(fakeserver.Instance{ASID: "a1", Type: "1"})

		nav = &navigation.Recorder{}
		var err error
		c, err = New(Options{
			BaseURL:      srv.URL,
			PollInterval: 20 * time.Millisecond,
			Navigator:    nav,
			Login:        nav,
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(c.Stop)

		Expect(c.Login(ctx, "alice@example.com", "secret")).To(Succeed())
	})

	It("requires a login boundary", func() {
		_, err := New(Options{BaseURL: srv.URL})
		Expect(err).To(HaveOccurred())
	})

	Describe("Start", func() {
		It("loads the directory and starts polling", func() {
			Expect(c.Start(ctx)).To(Succeed())

			Expect(c.Directory.Instances()).To(HaveLen(1))
			sel, ok := c.Directory.Selected()
			Expect(ok).To(BeTrue())
			Expect(sel.ID).To(Equal("a1"))
			Expect(c.Poller.Running()).To(BeTrue())
			Expect(c.Poller.DisplayName("ubuntu")).To(Equal("Ubuntu 20.04"))
		})

		It("redirects to login once when every bootstrap call is rejected", func() {
			srv.Expire()

			err := c.Start(ctx)
			Expect(err).To(HaveOccurred())
			Expect(api.IsAuthExpired(err)).To(BeTrue())
			Expect(nav.Redirects()).To(Equal(1))
			Expect(c.Expired()).To(BeTrue())
			Expect(c.Poller.Running()).To(BeFalse())
		})
	})

	Describe("provisioning", func() {
		BeforeEach(func() {
			Expect(c.Start(ctx)).To(Succeed())
		})

		It("configures an instance end to end", func() {
			in, ok := c.Directory.Instance("a1")
			Expect(ok).To(BeTrue())
			in.Mode = model.ModePublicIP
			in.IP = "10.0.0.1"
			in.Port = 9000
			in.AttachmentPoint = "AP1"

			res, err := c.Submit(ctx, model.ActionUpdate, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Message).To(Equal("AS configured"))
			Expect(c.Messages.Get(messages.SlotInstance).Success).To(Equal("AS configured"))
			Expect(nav.Opened()).To(ConsistOf(srv.APIURL("as/downloadTarball/a1")))

			refreshed, _ := c.Directory.Instance("a1")
			Expect(refreshed.State).To(Equal(model.StateConfigured))
			Expect(refreshed.Actions().Remove.Offered()).To(BeTrue())
		})

		It("generates, submits a build job and sees it in the records", func() {
			_, err := c.Submit(ctx, model.ActionGenerate, model.Instance{})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Messages.Get(messages.SlotGeneral).Success).To(Equal("AS generated"))
			Expect(c.Directory.Instances()).To(HaveLen(2))

			_, err = c.Poller.SubmitBuildJob(ctx, "a1", "ubuntu")
			Expect(err).NotTo(HaveOccurred())
			Eventually(c.Poller.Records).Should(ContainElement(HaveField("DisplayName", "Ubuntu 20.04")))
		})
	})

	Describe("session expiry", func() {
		BeforeEach(func() {
			Expect(c.Start(ctx)).To(Succeed())
		})

		It("halts the poller and redirects exactly once", func() {
			srv.Fail("/api/imgbuild/user-images", http.StatusUnauthorized, "expired")
			Eventually(c.Poller.Done()).Should(BeClosed())

			_, err := c.Submit(ctx, model.ActionRemove, model.Instance{ID: "a1"})
			// Remove still reaches the server; only the poll endpoint fails.
			Expect(err).NotTo(HaveOccurred())

			srv.Expire()
			_, err = c.Submit(ctx, model.ActionGenerate, model.Instance{})
			Expect(api.IsAuthExpired(err)).To(BeTrue())

			Expect(nav.Redirects()).To(Equal(1))
			Expect(c.Messages.Get(messages.SlotGeneral).Error).To(BeEmpty())
		})
	})

	Describe("login boundary", func() {
		It("re-arms after a new login", func() {
			srv.Expire()
			Expect(c.Refresh(ctx)).NotTo(Succeed())
			Expect(nav.Redirects()).To(Equal(1))

			Expect(c.Login(ctx, "alice@example.com", "secret")).To(Succeed())
			Expect(c.Expired()).To(BeFalse())
			Expect(c.Refresh(ctx)).To(Succeed())

			srv.Expire()
			Expect(c.Refresh(ctx)).NotTo(Succeed())
			Expect(nav.Redirects()).To(Equal(2))
		})
	})

	Describe("Stop", func() {
		It("cancels the poll loop and waits for it", func() {
			Expect(c.Start(ctx)).To(Succeed())
			done := c.Poller.Done()
			c.Stop()
			Expect(done).To(BeClosed())
		})
	})
})
