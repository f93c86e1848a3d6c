package handlers

import "github.com/gofiber/fiber/v2"

// Every endpoint answers with the same envelope: {success, data?, error?}.

func respondOK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}
