package listingHandler

import (
	"Replicaide/internal/api/listing"
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	"Replicaide/pkg/handlerUtil"
	jwtPkg "Replicaide/pkg/jwt"
	"Replicaide/pkg/utils"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const createTimeout = 3 * time.Minute

func (h *ListingHandler) resolveActor(c context.Context, ctx *fiber.Ctx) (entity.Actor, error) {
	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return entity.Actor{}, err
	}

	locale := ctx.Query("lang")
	if locale == "" {
		locale = ctx.Get(LocaleHeader)
	}

	return h.actors.Actor(c, userData.ID, locale)
}

func (h *ListingHandler) CreateListing(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), createTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	actor, err := h.resolveActor(c, ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "resolve_actor")
	}

	image, imageErr := ctx.FormFile("image")
	audioFile, audioErr := ctx.FormFile("audio")
	if imageErr != nil || audioErr != nil {
		return errHandler.Handle(ctx, requestID, listing.ErrMissingArtifact, ctx.Path(), "read_upload")
	}

	if err := h.utils.ValidateImageFile(image); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.utils.ValidateAudioFile(audioFile); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	in, err := h.readInput(image, audioFile)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_upload")
	}

	res, err := h.listingService.Create(c, actor, in)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_listing")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, listing.MakeListingResponse(res))
	}
}

func (h *ListingHandler) readInput(image, audio *multipart.FileHeader) (listing.CreateListingInput, error) {
	imageData, err := h.utils.ReadFile(image)
	if err != nil {
		return listing.CreateListingInput{}, err
	}
	audioData, err := h.utils.ReadFile(audio)
	if err != nil {
		return listing.CreateListingInput{}, err
	}
	if len(imageData) == 0 {
		return listing.CreateListingInput{}, listing.ErrMissingArtifact
	}
	if audioData == nil {
		audioData = []byte{}
	}

	return listing.CreateListingInput{
		Image:         imageData,
		ImageName:     image.Filename,
		ImageMIMEType: utils.ContentType(image),
		Audio:         audioData,
		AudioName:     audio.Filename,
		AudioMIMEType: utils.ContentType(audio),
	}, nil
}

func (h *ListingHandler) ListListings(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	res, err := h.listingService.List(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_listings")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, listing.MakeListingResponses(res))
	}
}

func (h *ListingHandler) GetListing(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	res, err := h.listingService.Get(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_listing")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, listing.MakeListingResponse(res))
	}
}

func (h *ListingHandler) UpdateListing(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req listing.UpdateListingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	actor, err := h.resolveActor(c, ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "resolve_actor")
	}

	res, err := h.listingService.Update(c, actor, ctx.Params("id"), req.ToUpdate())
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_listing")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, listing.MakeListingResponse(res))
	}
}

func (h *ListingHandler) DeleteListing(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if err := h.listingService.Delete(c, ctx.Params("id")); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_listing")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusNoContent, nil)
	}
}
